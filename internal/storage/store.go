// Package storage owns the on-disk layout of a table: its directory,
// the schema/metadata/index JSON files and the fixed-capacity CSV page
// files. Every operation reloads persisted state on open and flushes on
// mutation; nothing is cached across calls.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tuannm99/flatbase/internal/index"
	"github.com/tuannm99/flatbase/internal/record"
)

var (
	ErrTableNotFound  = errors.New("flatbase: table not found")
	ErrTableExists    = errors.New("flatbase: table already exists")
	ErrColumnNotFound = errors.New("flatbase: column not found")
)

// Store locates tables under a single data directory, one subdirectory
// per table.
type Store struct {
	DataDir string
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &Store{DataDir: dataDir}, nil
}

func (s *Store) tableDir(name string) string {
	return filepath.Join(s.DataDir, name)
}

// TableExists reports whether the table directory exists.
func (s *Store) TableExists(name string) bool {
	info, err := os.Stat(s.tableDir(name))
	return err == nil && info.IsDir()
}

// CreateTable persists schema, empty metadata, empty primary-key index
// and an empty first page for a new table.
func (s *Store) CreateTable(name string, schema record.Schema) (*Table, error) {
	if s.TableExists(name) {
		return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	dir := s.tableDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	t := &Table{Name: name, Dir: dir, Schema: schema}
	t.Meta = Metadata{AutoID: -1, DeletedIDs: []int{}}

	if err := writeJSON(t.schemaPath(), schema); err != nil {
		return nil, err
	}
	if err := t.saveMetadata(); err != nil {
		return nil, err
	}
	pk, err := index.Create(t.indexPath())
	if err != nil {
		return nil, err
	}
	t.PK = pk

	// Empty first page so a full scan of a fresh table has something
	// to read.
	if err := os.WriteFile(t.pagePath(0), nil, 0o644); err != nil {
		return nil, err
	}
	return t, nil
}

// OpenTable loads schema, metadata and the primary-key index from disk.
func (s *Store) OpenTable(name string) (*Table, error) {
	if !s.TableExists(name) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	t := &Table{Name: name, Dir: s.tableDir(name)}

	if err := readJSON(t.schemaPath(), &t.Schema); err != nil {
		return nil, err
	}
	if err := readJSON(t.metaPath(), &t.Meta); err != nil {
		return nil, err
	}
	pk, err := index.Load(t.indexPath())
	if err != nil {
		return nil, err
	}
	t.PK = pk
	return t, nil
}

// DropTable removes the whole table directory.
func (s *Store) DropTable(name string) error {
	if !s.TableExists(name) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return os.RemoveAll(s.tableDir(name))
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
