package snapshot

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	terrors "github.com/matzehuels/treeize/pkg/errors"
)

// FileStore keeps each document in <dir>/<id>.json.
type FileStore[T any] struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// NewFileStore creates a file-based document store.
// If baseDir is empty, defaults to ~/.config/treeize/documents/
func NewFileStore[T any](baseDir string) (*FileStore[T], error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, terrors.Wrap(terrors.ErrCodeInternal, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".config", "treeize", "documents")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "create document dir")
	}
	return &FileStore[T]{baseDir: baseDir, now: time.Now}, nil
}

func (s *FileStore[T]) docPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Get loads a document.
func (s *FileStore[T]) Get(ctx context.Context, id string) (*Document[T], error) {
	if err := terrors.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.docPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "read document %s", id)
	}
	defer f.Close()
	return ReadJSON[T](f)
}

// Put writes a document.
func (s *FileStore[T]) Put(ctx context.Context, doc *Document[T]) error {
	if err := terrors.ValidateDocumentID(doc.ID); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.UpdatedAt = s.now().UTC()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return terrors.Wrap(terrors.ErrCodeInternal, err, "marshal document")
	}
	if err := os.WriteFile(s.docPath(doc.ID), data, 0o600); err != nil {
		return terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "write document %s", doc.ID)
	}
	return nil
}

// Delete removes a document.
func (s *FileStore[T]) Delete(ctx context.Context, id string) error {
	if err := terrors.ValidateDocumentID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.docPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(id)
	}
	if err != nil {
		return terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "remove document %s", id)
	}
	return nil
}

// List summarises the stored documents. Unreadable files are skipped.
func (s *FileStore[T]) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeStoreUnavailable, err, "read document dir")
	}
	var out []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		if terrors.ValidateDocumentID(strings.TrimSuffix(name, ".json")) != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, name))
		if err != nil {
			continue
		}
		var doc Document[T]
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		out = append(out, doc.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// Close does nothing for file store.
func (s *FileStore[T]) Close() error { return nil }

// Path returns the base directory for document files.
func (s *FileStore[T]) Path() string { return s.baseDir }

func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

var _ Store[struct{}] = (*FileStore[struct{}])(nil)
