// Package storage reads and writes outline documents and their backups
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pstuifzand/outline-diff/internal/model"
)

// JSONStore reads and writes one outline document
type JSONStore struct {
	FilePath string
}

// NewJSONStore returns a store for the document at filePath
func NewJSONStore(filePath string) *JSONStore {
	return &JSONStore{FilePath: filePath}
}

// Load reads the document. A missing file is an empty outline.
func (s *JSONStore) Load() (*model.Outline, error) {
	f, err := os.Open(s.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewOutline(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads an outline document from r, links every item to its parent
// and rejects documents that repeat an item ID
func Decode(r io.Reader) (*model.Outline, error) {
	outline := model.NewOutline()
	if err := json.NewDecoder(r).Decode(outline); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	for _, top := range outline.Items {
		top.Parent = nil
		link(top)
	}
	if err := outline.Validate(); err != nil {
		return nil, err
	}
	return outline, nil
}

func link(parent *model.Item) {
	for _, child := range parent.Children {
		child.Parent = parent
		link(child)
	}
}

// Save writes the outline next to the target file and renames it into
// place, so readers never see a partial document
func (s *JSONStore) Save(outline *model.Outline) error {
	dir := filepath.Dir(s.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.FilePath)+".*")
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outline); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.FilePath); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FileExists reports whether the document is present
func (s *JSONStore) FileExists() bool {
	info, err := os.Stat(s.FilePath)
	return err == nil && info.Mode().IsRegular()
}
