// Package index maintains the per-table primary-key index: a map from
// the primary-key value (as text) to the owning row id, persisted as a
// single JSON file that is rewritten in full on every mutation.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrDuplicateKey = errors.New("flatbase: duplicate primary key")
	ErrKeyNotFound  = errors.New("flatbase: primary key not found")
)

type Index struct {
	path    string
	entries map[string]int
}

// Create writes an empty index file at path.
func Create(path string) (*Index, error) {
	idx := &Index{path: path, entries: map[string]int{}}
	if err := idx.save(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Load reads the whole index file into memory.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	idx := &Index{path: path, entries: map[string]int{}}
	if err := json.Unmarshal(data, &idx.entries); err != nil {
		return nil, fmt.Errorf("flatbase: corrupt primary key index %s: %w", path, err)
	}
	return idx, nil
}

func (idx *Index) save() error {
	data, err := json.MarshalIndent(idx.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(idx.path, data, 0o644)
}

// Has reports whether value is already indexed.
func (idx *Index) Has(value string) bool {
	_, ok := idx.entries[value]
	return ok
}

// Lookup resolves a primary-key value to its row id.
func (idx *Index) Lookup(value string) (int, error) {
	id, ok := idx.entries[value]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrKeyNotFound, value)
	}
	return id, nil
}

// Insert adds a new entry and rewrites the index file.
func (idx *Index) Insert(value string, rowID int) error {
	if idx.Has(value) {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, value)
	}
	idx.entries[value] = rowID
	return idx.save()
}

// Remove deletes an entry and rewrites the index file.
func (idx *Index) Remove(value string) error {
	if !idx.Has(value) {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, value)
	}
	delete(idx.entries, value)
	return idx.save()
}

// Rekey moves a row id from one primary-key value to another. Used when
// an update rewrites the primary-key column itself.
func (idx *Index) Rekey(oldValue, newValue string) error {
	id, ok := idx.entries[oldValue]
	if !ok {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, oldValue)
	}
	if idx.Has(newValue) {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, newValue)
	}
	delete(idx.entries, oldValue)
	idx.entries[newValue] = id
	return idx.save()
}

// Len returns the number of live entries.
func (idx *Index) Len() int { return len(idx.entries) }
