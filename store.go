package snakesboard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MappingStoreKey is the fixed key a mapping document lives under inside a
// store directory.
const MappingStoreKey = "mapping.json"

// MappingStore persists the mapping document under a fixed key in a
// directory, with an in-memory copy guarded for concurrent readers. The
// document is replaced wholesale on save, never patched in place.
type MappingStore struct {
	mu  sync.RWMutex
	dir string

	current *MappingDocument
}

// NewMappingStore opens a store rooted at dir, creating the directory if
// needed and loading any previously saved document.
func NewMappingStore(dir string) (*MappingStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create mapping store dir: %w", err)
	}

	s := &MappingStore{dir: dir}

	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read stored mapping: %w", err)
	}

	doc, err := DecodeMapping(data)
	if err != nil {
		return nil, err
	}
	s.current = doc
	return s, nil
}

func (s *MappingStore) path() string {
	return filepath.Join(s.dir, MappingStoreKey)
}

// Current returns the loaded document, or nil if none has been saved.
func (s *MappingStore) Current() *MappingDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save validates, stamps and persists a document, making it current.
func (s *MappingStore) Save(doc *MappingDocument) error {
	if doc == nil {
		return fmt.Errorf("nothing to save")
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	// imported documents keep their original stamp so an export/import
	// round trip is byte-stable
	if doc.Meta.UpdatedAt == "" {
		doc.Meta.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := EncodeMapping(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(), data, 0o644); err != nil {
		return fmt.Errorf("cannot write mapping: %w", err)
	}
	s.current = doc
	return nil
}

// Export streams the current document in the interchange JSON shape.
func (s *MappingStore) Export(w io.Writer) error {
	s.mu.RLock()
	doc := s.current
	s.mu.RUnlock()

	if doc == nil {
		return fmt.Errorf("no mapping to export")
	}
	data, err := EncodeMapping(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Import reads a document from r, rejecting malformed JSON or a wrong
// version, and persists it as current.
func (s *MappingStore) Import(r io.Reader) (*MappingDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read import: %w", err)
	}
	doc, err := DecodeMapping(data)
	if err != nil {
		return nil, err
	}
	if err := s.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Clear removes the stored document.
func (s *MappingStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	err := os.Remove(s.path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
