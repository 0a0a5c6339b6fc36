package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tuannm99/flatbase/internal/record"
)

// readPageFile returns every slot currently present in a page file,
// tombstones included. A page that does not exist yet reads as empty.
func (t *Table) readPageFile(n int) ([][]string, error) {
	f, err := os.Open(t.pagePath(n))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = t.Schema.NumCols()
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("flatbase: corrupt page %s: %w", t.pagePath(n), err)
	}
	return rows, nil
}

// encodeCSVRow renders one record as a CSV line. A single empty field
// would encode as a blank line, which csv readers skip on read-back,
// shifting every later slot; quote the field so the line survives.
func encodeCSVRow(row []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(row); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	if buf.String() == "\n" {
		return []byte("\"\"\n"), nil
	}
	return buf.Bytes(), nil
}

// writePageFile rewrites the whole page file. The page, not the slot,
// is the unit of I/O.
func (t *Table) writePageFile(n int, rows [][]string) error {
	var buf bytes.Buffer
	for _, row := range rows {
		line, err := encodeCSVRow(row)
		if err != nil {
			return err
		}
		buf.Write(line)
	}
	return os.WriteFile(t.pagePath(n), buf.Bytes(), 0o644)
}

// WriteRow places fields into the slot addressed by rowID, padding any
// intervening slots with empty rows and rewriting the page in full.
func (t *Table) WriteRow(rowID int, fields []string) error {
	if len(fields) != t.Schema.NumCols() {
		return fmt.Errorf("flatbase: row has %d fields, schema has %d",
			len(fields), t.Schema.NumCols())
	}
	if rowID < 0 {
		return fmt.Errorf("flatbase: invalid row id %d", rowID)
	}

	page := PageOf(rowID)
	slot := SlotOf(rowID)

	rows, err := t.readPageFile(page)
	if err != nil {
		return err
	}
	for len(rows) <= slot {
		rows = append(rows, make([]string, t.Schema.NumCols()))
	}
	rows[slot] = fields
	if len(rows) > PageCapacity {
		return fmt.Errorf("flatbase: page %d overflows %d slots", page, PageCapacity)
	}
	return t.writePageFile(page, rows)
}

// ReadRawRow returns the textual fields stored at rowID's slot. A slot
// beyond the current page length reads as a tombstone.
func (t *Table) ReadRawRow(rowID int) ([]string, error) {
	rows, err := t.readPageFile(PageOf(rowID))
	if err != nil {
		return nil, err
	}
	slot := SlotOf(rowID)
	if slot >= len(rows) {
		return make([]string, t.Schema.NumCols()), nil
	}
	return rows[slot], nil
}

// LiveRaw returns the non-tombstone textual rows of a page in slot
// order.
func (t *Table) LiveRaw(n int) ([][]string, error) {
	rows, err := t.readPageFile(n)
	if err != nil {
		return nil, err
	}
	live := make([][]string, 0, len(rows))
	for _, row := range rows {
		if record.IsTombstone(row) {
			continue
		}
		live = append(live, row)
	}
	return live, nil
}

// ReadRows returns the non-tombstone rows of a page decoded to their
// declared types.
func (t *Table) ReadRows(n int) ([][]any, error) {
	live, err := t.LiveRaw(n)
	if err != nil {
		return nil, err
	}
	out := make([][]any, 0, len(live))
	for _, row := range live {
		decoded, err := t.Schema.DecodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}
