package snapshot

import (
	"context"
	"errors"

	terrors "github.com/matzehuels/treeize/pkg/errors"
)

// ErrNotFound is the cause of every missing-document error.
var ErrNotFound = errors.New("document not found")

// Store persists documents by ID.
type Store[T any] interface {
	// Get loads a document. A missing document yields an error coded
	// DOCUMENT_NOT_FOUND wrapping ErrNotFound.
	Get(ctx context.Context, id string) (*Document[T], error)

	// Put creates or replaces doc and stamps UpdatedAt. doc.ID must be set.
	Put(ctx context.Context, doc *Document[T]) error

	// Delete removes a document. Deleting a missing document is an error
	// like Get's.
	Delete(ctx context.Context, id string) error

	// List summarises every stored document, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	Close() error
}

func notFound(id string) error {
	return terrors.Wrap(terrors.ErrCodeDocumentNotFound, ErrNotFound, "document %s not found", id)
}
