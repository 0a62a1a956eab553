package snapshot

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"

	terrors "github.com/matzehuels/treeize/pkg/errors"
)

// WriteJSON encodes doc as indented JSON.
func WriteJSON[T any](w io.Writer, doc *Document[T]) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return terrors.Wrap(terrors.ErrCodeInternal, err, "encode document")
	}
	return nil
}

// ReadJSON decodes and validates a document. ReadJSON does not close r.
//
//	{
//	  "nodes": [{"value": {"title": "a", "outputs": 1}, "x": 0, "y": 0, "open": true},
//	            {"value": {"title": "b", "inputs": 1}, "x": 0, "y": 150, "open": true}],
//	  "wires": [{"from": 0, "output": 0, "to": 1, "input": 0}]
//	}
func ReadJSON[T any](r io.Reader) (*Document[T], error) {
	var doc Document[T]
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeInvalidFormat, err, "decode document")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Export writes doc to a JSON file at path.
func Export[T any](doc *Document[T], path string) error {
	f, err := os.Create(path)
	if err != nil {
		return terrors.Wrap(terrors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := WriteJSON(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Import reads a document from a JSON file at path.
func Import[T any](path string) (*Document[T], error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, terrors.Wrap(terrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, terrors.Wrap(terrors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON[T](f)
}
