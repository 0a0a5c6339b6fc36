// Package extsort merges pre-sorted spill runs into one globally
// ordered file. Runs are CSV files with a header row; merging is a
// binary tree of pairwise streaming merges, so N runs take ceil(log2 N)
// passes. The ordering column is re-parsed to its declared type at
// compare time, so "10" never sorts before "2" on an int key.
package extsort

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tuannm99/flatbase/internal/record"
)

// Key names the ordering column, its declared type and direction.
type Key struct {
	Column string
	Type   record.ColumnType
	Desc   bool
}

// WriteRun writes one sorted chunk to path: a header row followed by
// the records in chunk order.
func WriteRun(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadRun loads a whole run file back into memory.
func ReadRun(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err = r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	rows, err = r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return header, rows, nil
}

// Merge repeatedly merges adjacent pairs of runs until a single,
// globally sorted file remains and returns its path. An odd run out
// carries over unmerged to the next pass. Input runs are deleted as
// they are consumed.
func Merge(paths []string, key Key) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("flatbase: no runs to merge")
	}

	for pass := 0; len(paths) > 1; pass++ {
		next := make([]string, 0, (len(paths)+1)/2)
		for i := 0; i+1 < len(paths); i += 2 {
			out := filepath.Join(filepath.Dir(paths[i]),
				fmt.Sprintf("merge_%d_%d.csv", pass, i/2))
			if err := mergePair(paths[i], paths[i+1], out, key); err != nil {
				return "", err
			}
			if err := os.Remove(paths[i]); err != nil {
				return "", err
			}
			if err := os.Remove(paths[i+1]); err != nil {
				return "", err
			}
			next = append(next, out)
		}
		if len(paths)%2 == 1 {
			next = append(next, paths[len(paths)-1])
		}
		paths = next
	}
	return paths[0], nil
}

// mergePair streams two sorted runs into out with a two-pointer merge.
func mergePair(leftPath, rightPath, out string, key Key) error {
	left, err := openRun(leftPath, key)
	if err != nil {
		return err
	}
	defer left.close()

	right, err := openRun(rightPath, key)
	if err != nil {
		return err
	}
	defer right.close()

	header := left.header
	if header == nil {
		header = right.header
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if header != nil {
		if err := w.Write(header); err != nil {
			_ = f.Close()
			return err
		}
	}

	for left.pending != nil && right.pending != nil {
		cmp, err := record.Compare(left.keyText(), right.keyText(), key.Type)
		if err != nil {
			_ = f.Close()
			return err
		}
		takeLeft := cmp <= 0
		if key.Desc {
			takeLeft = cmp >= 0
		}
		src := right
		if takeLeft {
			src = left
		}
		if err := w.Write(src.pending); err != nil {
			_ = f.Close()
			return err
		}
		if err := src.advance(); err != nil {
			_ = f.Close()
			return err
		}
	}
	for _, rest := range []*runReader{left, right} {
		for rest.pending != nil {
			if err := w.Write(rest.pending); err != nil {
				_ = f.Close()
				return err
			}
			if err := rest.advance(); err != nil {
				_ = f.Close()
				return err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// runReader streams one run, holding the next unread record.
type runReader struct {
	f       *os.File
	r       *csv.Reader
	header  []string
	keyIdx  int
	pending []string
}

func openRun(path string, key Key) (*runReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rr := &runReader{f: f, r: csv.NewReader(f), keyIdx: -1}

	header, err := rr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return rr, nil
		}
		_ = f.Close()
		return nil, err
	}
	rr.header = header
	for i, col := range header {
		if col == key.Column {
			rr.keyIdx = i
			break
		}
	}
	if rr.keyIdx < 0 {
		_ = f.Close()
		return nil, fmt.Errorf("flatbase: ordering column %q not in run %s", key.Column, path)
	}
	if err := rr.advance(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return rr, nil
}

func (rr *runReader) keyText() string {
	return rr.pending[rr.keyIdx]
}

func (rr *runReader) advance() error {
	rec, err := rr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			rr.pending = nil
			return nil
		}
		return err
	}
	rr.pending = rec
	return nil
}

func (rr *runReader) close() {
	_ = rr.f.Close()
}
