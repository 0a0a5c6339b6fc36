package exec

import (
	"fmt"
	"sort"

	"github.com/tuannm99/flatbase/internal/cond"
	"github.com/tuannm99/flatbase/internal/record"
	"github.com/tuannm99/flatbase/internal/storage"
)

// Query runs a full-table scan with optional filter, projection and
// global ordering. A nil filter matches everything; nil columns project
// the whole schema in order.
func (e *Executor) Query(table string, columns []string, filter cond.Expr, orderBy *OrderBy) (*Result, error) {
	t, err := e.Store.OpenTable(table)
	if err != nil {
		return nil, err
	}

	if columns == nil {
		columns = t.Schema.ColumnNames()
	}
	for _, col := range columns {
		if t.Schema.ColPos(col) < 0 {
			return nil, fmt.Errorf("%w: %s.%s", storage.ErrColumnNotFound, table, col)
		}
	}

	types := make(map[string]record.ColumnType, t.Schema.NumCols())
	for _, c := range t.Schema.Cols {
		types[c.Name] = c.Type
	}

	var matched [][]string
	for page := 0; page <= t.LastPage(); page++ {
		live, err := t.LiveRaw(page)
		if err != nil {
			return nil, err
		}
		for _, raw := range live {
			fields := make(map[string]string, len(raw))
			for i, c := range t.Schema.Cols {
				fields[c.Name] = raw[i]
			}
			ok, err := cond.Eval(filter, cond.Row{Fields: fields, Types: types})
			if err != nil {
				return nil, err
			}
			if ok {
				matched = append(matched, raw)
			}
		}
	}

	if orderBy != nil {
		if err := sortRaw(matched, t.Schema, *orderBy); err != nil {
			return nil, err
		}
	}

	res := &Result{Columns: columns}
	for _, raw := range matched {
		out := make([]any, len(columns))
		for i, col := range columns {
			pos := t.Schema.ColPos(col)
			v, err := record.Coerce(raw[pos], t.Schema.Cols[pos].Type)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		res.Rows = append(res.Rows, out)
	}
	return res, nil
}

// sortRaw orders textual rows globally by one column, comparing typed
// values rather than text.
func sortRaw(rows [][]string, schema record.Schema, ob OrderBy) error {
	pos := schema.ColPos(ob.Column)
	if pos < 0 {
		return fmt.Errorf("%w: order by %s", storage.ErrColumnNotFound, ob.Column)
	}
	typ := schema.Cols[pos].Type

	type keyed struct {
		key any
		row []string
	}
	ks := make([]keyed, len(rows))
	for i, row := range rows {
		v, err := record.Coerce(row[pos], typ)
		if err != nil {
			return err
		}
		ks[i] = keyed{key: v, row: row}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		cmp := record.CompareValues(ks[i].key, ks[j].key)
		if ob.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
	for i := range ks {
		rows[i] = ks[i].row
	}
	return nil
}
