package storage

import (
	"fmt"
	"path/filepath"

	"github.com/tuannm99/flatbase/internal/index"
	"github.com/tuannm99/flatbase/internal/record"
)

// PageCapacity is the fixed number of row slots per page file.
const PageCapacity = 64

// PageOf maps a row id to its page number.
func PageOf(rowID int) int { return rowID >> 6 }

// SlotOf maps a row id to its slot position inside the page.
func SlotOf(rowID int) int { return rowID % PageCapacity }

// Metadata is the persisted allocation state of a table. AutoID starts
// at -1 meaning no id allocated yet; DeletedIDs is a LIFO stack of
// reclaimed row ids.
type Metadata struct {
	AutoID     int   `json:"auto_id"`
	DeletedIDs []int `json:"deleted_ids"`
}

// Table is the per-table catalog object: schema, metadata and
// primary-key index loaded on open, flushed on mutation.
type Table struct {
	Name   string
	Dir    string
	Schema record.Schema
	Meta   Metadata
	PK     *index.Index
}

func (t *Table) schemaPath() string {
	return filepath.Join(t.Dir, t.Name+"_schema.json")
}

func (t *Table) metaPath() string {
	return filepath.Join(t.Dir, t.Name+"_metadata.json")
}

func (t *Table) indexPath() string {
	return filepath.Join(t.Dir, t.Name+"_primary_key_index.json")
}

func (t *Table) pagePath(n int) string {
	return filepath.Join(t.Dir, fmt.Sprintf("%s_%d.csv", t.Name, n))
}

func (t *Table) saveMetadata() error {
	return writeJSON(t.metaPath(), t.Meta)
}

// LastPage returns the highest page number a scan must visit. A table
// with no allocated ids returns -1.
func (t *Table) LastPage() int {
	return PageOf(t.Meta.AutoID)
}

// AllocateRowID pops the most recently freed id if any (reused=true),
// otherwise advances and persists the counter (reused=false). The
// free list itself is only persisted once the caller commits the reuse
// via ConsumeFreeID.
func (t *Table) AllocateRowID() (rowID int, reused bool, err error) {
	if n := len(t.Meta.DeletedIDs); n > 0 {
		rowID = t.Meta.DeletedIDs[n-1]
		t.Meta.DeletedIDs = t.Meta.DeletedIDs[:n-1]
		return rowID, true, nil
	}
	t.Meta.AutoID++
	if err := t.saveMetadata(); err != nil {
		t.Meta.AutoID--
		return 0, false, err
	}
	return t.Meta.AutoID, false, nil
}

// ReleaseRowID compensates a freshly advanced counter after a failed
// row write. Best effort, not a transaction.
func (t *Table) ReleaseRowID(rowID int) error {
	if rowID != t.Meta.AutoID {
		return nil
	}
	t.Meta.AutoID--
	return t.saveMetadata()
}

// ConsumeFreeID persists the removal of a reused id from the free list.
func (t *Table) ConsumeFreeID(rowID int) error {
	kept := t.Meta.DeletedIDs[:0]
	for _, id := range t.Meta.DeletedIDs {
		if id != rowID {
			kept = append(kept, id)
		}
	}
	t.Meta.DeletedIDs = kept
	return t.saveMetadata()
}

// Tombstone overwrites the row's slot with an all-empty row and pushes
// the id onto the free list.
func (t *Table) Tombstone(rowID int) error {
	empty := make([]string, t.Schema.NumCols())
	if err := t.WriteRow(rowID, empty); err != nil {
		return err
	}
	t.Meta.DeletedIDs = append(t.Meta.DeletedIDs, rowID)
	return t.saveMetadata()
}
