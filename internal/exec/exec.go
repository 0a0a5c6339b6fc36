// Package exec implements the engine's operation surface on top of the
// storage, index, cond and extsort packages: CRUD, filtered scans,
// nested-loop joins with spill, and group-by aggregation.
package exec

import (
	"errors"
	"fmt"

	"github.com/tuannm99/flatbase/internal/index"
	"github.com/tuannm99/flatbase/internal/record"
	"github.com/tuannm99/flatbase/internal/storage"
)

var ErrInvalidDeleteTarget = errors.New("flatbase: delete requires the primary key column")

type Executor struct {
	Store *storage.Store
}

func New(store *storage.Store) *Executor {
	return &Executor{Store: store}
}

// prepareRow validates that every schema column is present in values
// and convertible to its declared type, and returns the normalized
// textual row in schema order.
func prepareRow(schema record.Schema, values map[string]string) ([]string, error) {
	fields := make([]string, len(schema.Cols))
	for i, col := range schema.Cols {
		raw, ok := values[col.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing value for column %s",
				storage.ErrColumnNotFound, col.Name)
		}
		v, err := record.Coerce(raw, col.Type)
		if err != nil {
			return nil, err
		}
		fields[i] = record.Format(v)
	}
	return fields, nil
}

// Insert validates and writes one new row. The duplicate-key check runs
// before id allocation so a rejected insert never consumes an id; a
// failed row write compensates a freshly advanced counter.
func (e *Executor) Insert(table string, values map[string]string) error {
	t, err := e.Store.OpenTable(table)
	if err != nil {
		return err
	}

	fields, err := prepareRow(t.Schema, values)
	if err != nil {
		return err
	}

	pkPos := t.Schema.ColPos(t.Schema.PrimaryKey)
	pkValue := fields[pkPos]
	if t.PK.Has(pkValue) {
		return fmt.Errorf("%w: %q", index.ErrDuplicateKey, pkValue)
	}

	rowID, reused, err := t.AllocateRowID()
	if err != nil {
		return err
	}
	if err := t.WriteRow(rowID, fields); err != nil {
		if !reused {
			// best-effort rollback of the counter advance; not a
			// transaction
			_ = t.ReleaseRowID(rowID)
		}
		return err
	}
	if reused {
		if err := t.ConsumeFreeID(rowID); err != nil {
			return err
		}
	}
	return t.PK.Insert(pkValue, rowID)
}

// Update overwrites the row whose primary key (looked up via column =
// value) matches, re-keying the index first when the primary-key column
// itself changes.
func (e *Executor) Update(table, column, value string, newValues map[string]string) error {
	t, err := e.Store.OpenTable(table)
	if err != nil {
		return err
	}
	if t.Schema.ColPos(column) < 0 {
		return fmt.Errorf("%w: %s.%s", storage.ErrColumnNotFound, table, column)
	}

	rowID, err := t.PK.Lookup(value)
	if err != nil {
		return err
	}

	if column == t.Schema.PrimaryKey {
		newPK, ok := newValues[column]
		if !ok {
			return fmt.Errorf("%w: missing value for column %s",
				storage.ErrColumnNotFound, column)
		}
		if newPK != value {
			if err := t.PK.Rekey(value, newPK); err != nil {
				return err
			}
		}
	}

	fields, err := prepareRow(t.Schema, newValues)
	if err != nil {
		return err
	}
	return t.WriteRow(rowID, fields)
}

// Delete tombstones the row addressed by its primary key. Index removal
// happens before the slot write; a failed slot write leaves the index
// already mutated (known non-atomicity gap).
func (e *Executor) Delete(table, column, value string) error {
	t, err := e.Store.OpenTable(table)
	if err != nil {
		return err
	}
	if column != t.Schema.PrimaryKey {
		return fmt.Errorf("%w: %s is not the primary key of %s",
			ErrInvalidDeleteTarget, column, table)
	}

	rowID, err := t.PK.Lookup(value)
	if err != nil {
		return err
	}
	if err := t.PK.Remove(value); err != nil {
		return err
	}
	return t.Tombstone(rowID)
}
