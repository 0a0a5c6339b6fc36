package exec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tuannm99/flatbase/internal/cond"
	"github.com/tuannm99/flatbase/internal/extsort"
	"github.com/tuannm99/flatbase/internal/record"
	"github.com/tuannm99/flatbase/internal/storage"
)

// joinShape is the merged column space of a two-table join: every key a
// merged row exposes (plain names, right overwriting collisions, plus
// table-qualified names), in a stable order usable as a run header.
type joinShape struct {
	keys   []string
	keyPos map[string]int
	types  map[string]record.ColumnType
}

func newJoinShape(left, right *storage.Table) *joinShape {
	s := &joinShape{
		keyPos: make(map[string]int),
		types:  make(map[string]record.ColumnType),
	}
	add := func(key string, t record.ColumnType) {
		if _, ok := s.keyPos[key]; !ok {
			s.keyPos[key] = len(s.keys)
			s.keys = append(s.keys, key)
		}
		s.types[key] = t
	}
	for _, c := range left.Schema.Cols {
		add(c.Name, c.Type)
	}
	for _, c := range right.Schema.Cols {
		add(c.Name, c.Type)
	}
	for _, c := range left.Schema.Cols {
		add(left.Name+"."+c.Name, c.Type)
	}
	for _, c := range right.Schema.Cols {
		add(right.Name+"."+c.Name, c.Type)
	}
	return s
}

// defaultColumns projects all columns of both tables, left first.
func (s *joinShape) defaultColumns(left, right *storage.Table) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, c := range left.Schema.Cols {
		if !seen[c.Name] {
			seen[c.Name] = true
			cols = append(cols, c.Name)
		}
	}
	for _, c := range right.Schema.Cols {
		if !seen[c.Name] {
			seen[c.Name] = true
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// mergeRows builds the merged row vector for one left/right row pair.
// On a plain-name collision the right table's value wins; the
// table-qualified keys keep both.
func (s *joinShape) mergeRows(left, right *storage.Table, lrow, rrow []string) []string {
	vec := make([]string, len(s.keys))
	for i, c := range left.Schema.Cols {
		vec[s.keyPos[c.Name]] = lrow[i]
		vec[s.keyPos[left.Name+"."+c.Name]] = lrow[i]
	}
	for i, c := range right.Schema.Cols {
		vec[s.keyPos[c.Name]] = rrow[i]
		vec[s.keyPos[right.Name+"."+c.Name]] = rrow[i]
	}
	return vec
}

func (s *joinShape) row(vec []string) cond.Row {
	fields := make(map[string]string, len(s.keys))
	for i, k := range s.keys {
		fields[k] = vec[i]
	}
	return cond.Row{Fields: fields, Types: s.types}
}

// parseJoinCondition resolves "table.column==table.column" against the
// two joined tables and returns the left and right column names.
func parseJoinCondition(expr, leftName, rightName string) (leftCol, rightCol string, err error) {
	parts := strings.SplitN(expr, "==", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("flatbase: bad join condition %q", expr)
	}
	for _, part := range parts {
		ref := strings.SplitN(strings.TrimSpace(part), ".", 2)
		if len(ref) != 2 {
			return "", "", fmt.Errorf("flatbase: bad join condition %q", expr)
		}
		switch ref[0] {
		case leftName:
			leftCol = ref[1]
		case rightName:
			rightCol = ref[1]
		default:
			return "", "", fmt.Errorf("flatbase: join condition references unknown table %q", ref[0])
		}
	}
	if leftCol == "" || rightCol == "" {
		return "", "", fmt.Errorf("flatbase: join condition %q must name both tables", expr)
	}
	return leftCol, rightCol, nil
}

// JoinQuery performs a nested-loop equality join page-pair by
// page-pair. Ordered joins sort each page-pair's filtered rows, spill
// them as runs into a per-invocation temp directory and merge the runs
// externally; unordered joins accumulate in memory.
func (e *Executor) JoinQuery(table string, columns []string, filter cond.Expr, orderBy *OrderBy, joinTable, joinCondition string) (*Result, error) {
	if joinTable == "" {
		return e.Query(table, columns, filter, orderBy)
	}

	left, err := e.Store.OpenTable(table)
	if err != nil {
		return nil, err
	}
	right, err := e.Store.OpenTable(joinTable)
	if err != nil {
		return nil, err
	}

	leftCol, rightCol, err := parseJoinCondition(joinCondition, table, joinTable)
	if err != nil {
		return nil, err
	}
	leftPos := left.Schema.ColPos(leftCol)
	if leftPos < 0 {
		return nil, fmt.Errorf("%w: %s.%s", storage.ErrColumnNotFound, table, leftCol)
	}
	rightPos := right.Schema.ColPos(rightCol)
	if rightPos < 0 {
		return nil, fmt.Errorf("%w: %s.%s", storage.ErrColumnNotFound, joinTable, rightCol)
	}

	shape := newJoinShape(left, right)
	if columns == nil {
		columns = shape.defaultColumns(left, right)
	}
	for _, col := range columns {
		if _, ok := shape.keyPos[col]; !ok {
			return nil, fmt.Errorf("%w: %s", storage.ErrColumnNotFound, col)
		}
	}

	var sortKey extsort.Key
	if orderBy != nil {
		typ, ok := shape.types[orderBy.Column]
		if !ok {
			return nil, fmt.Errorf("%w: order by %s", storage.ErrColumnNotFound, orderBy.Column)
		}
		sortKey = extsort.Key{Column: orderBy.Column, Type: typ, Desc: orderBy.Desc}
	}

	var (
		results  [][]string
		runPaths []string
		runDir   string
	)
	if orderBy != nil {
		runDir, err = os.MkdirTemp("", "flatbase_spill_")
		if err != nil {
			return nil, err
		}
		defer func() { _ = os.RemoveAll(runDir) }()
	}

	for lp := 0; lp <= left.LastPage(); lp++ {
		leftRows, err := left.LiveRaw(lp)
		if err != nil {
			return nil, err
		}
		for rp := 0; rp <= right.LastPage(); rp++ {
			rightRows, err := right.LiveRaw(rp)
			if err != nil {
				return nil, err
			}

			var pair [][]string
			for _, lrow := range leftRows {
				for _, rrow := range rightRows {
					if lrow[leftPos] != rrow[rightPos] {
						continue
					}
					vec := shape.mergeRows(left, right, lrow, rrow)
					ok, err := cond.Eval(filter, shape.row(vec))
					if err != nil {
						return nil, err
					}
					if ok {
						pair = append(pair, vec)
					}
				}
			}
			if len(pair) == 0 {
				continue
			}

			if orderBy == nil {
				results = append(results, pair...)
				continue
			}

			// one sorted run per page pair
			if err := sortVectors(pair, shape.keyPos[orderBy.Column], shape.types[orderBy.Column], orderBy.Desc); err != nil {
				return nil, err
			}
			runPath := filepath.Join(runDir, fmt.Sprintf("run_%d.csv", len(runPaths)))
			if err := extsort.WriteRun(runPath, shape.keys, pair); err != nil {
				return nil, err
			}
			runPaths = append(runPaths, runPath)
		}
	}

	if orderBy != nil && len(runPaths) > 0 {
		sortedPath, err := extsort.Merge(runPaths, sortKey)
		if err != nil {
			return nil, err
		}
		_, rows, err := extsort.ReadRun(sortedPath)
		if err != nil {
			return nil, err
		}
		results = rows
	}

	res := &Result{Columns: columns}
	for _, vec := range results {
		out := make([]any, len(columns))
		for i, col := range columns {
			v, err := record.Coerce(vec[shape.keyPos[col]], shape.types[col])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		res.Rows = append(res.Rows, out)
	}
	return res, nil
}

// sortVectors orders merged row vectors by one key position, comparing
// typed values.
func sortVectors(vecs [][]string, keyIdx int, typ record.ColumnType, desc bool) error {
	type keyed struct {
		key any
		vec []string
	}
	ks := make([]keyed, len(vecs))
	for i, v := range vecs {
		kv, err := record.Coerce(v[keyIdx], typ)
		if err != nil {
			return err
		}
		ks[i] = keyed{key: kv, vec: v}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		cmp := record.CompareValues(ks[i].key, ks[j].key)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	for i := range ks {
		vecs[i] = ks[i].vec
	}
	return nil
}
