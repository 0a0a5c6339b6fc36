package exec

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/tuannm99/flatbase/internal/cond"
	"github.com/tuannm99/flatbase/internal/storage"
)

type accumulator struct {
	sum   float64
	count int64
	min   float64
	max   float64
}

// GroupBy runs a single pass over the table, grouping rows by the group
// column's value and folding the aggregate column with the requested
// function (SUM, COUNT, MIN, MAX or AVG). A non-numeric aggregate value
// counts as 0; that tolerance is logged, never fatal.
func (e *Executor) GroupBy(table, groupColumn, function, aggregateColumn string) (*Result, error) {
	t, err := e.Store.OpenTable(table)
	if err != nil {
		return nil, err
	}

	groupPos := t.Schema.ColPos(groupColumn)
	if groupPos < 0 {
		return nil, fmt.Errorf("%w: %s.%s", storage.ErrColumnNotFound, table, groupColumn)
	}
	aggPos := t.Schema.ColPos(aggregateColumn)
	if aggPos < 0 {
		return nil, fmt.Errorf("%w: %s.%s", storage.ErrColumnNotFound, table, aggregateColumn)
	}

	fn := strings.ToUpper(strings.TrimSpace(function))
	switch fn {
	case "SUM", "COUNT", "MIN", "MAX", "AVG":
	default:
		return nil, fmt.Errorf("%w: aggregate %q", cond.ErrUnsupportedOperator, function)
	}

	groups := make(map[string]*accumulator)
	var order []string

	for page := 0; page <= t.LastPage(); page++ {
		live, err := t.LiveRaw(page)
		if err != nil {
			return nil, err
		}
		for _, row := range live {
			key := row[groupPos]
			acc, ok := groups[key]
			if !ok {
				acc = &accumulator{min: math.Inf(1), max: math.Inf(-1)}
				groups[key] = acc
				order = append(order, key)
			}

			v, err := strconv.ParseFloat(strings.TrimSpace(row[aggPos]), 64)
			if err != nil {
				slog.Warn("aggregate: non-numeric value treated as 0",
					"table", table, "column", aggregateColumn, "value", row[aggPos])
				v = 0
			}

			acc.sum += v
			acc.count++
			if v < acc.min {
				acc.min = v
			}
			if v > acc.max {
				acc.max = v
			}
		}
	}

	res := &Result{Columns: []string{groupColumn, fmt.Sprintf("%s(%s)", fn, aggregateColumn)}}
	for _, key := range order {
		acc := groups[key]
		var out any
		switch fn {
		case "SUM":
			out = acc.sum
		case "COUNT":
			out = acc.count
		case "MIN":
			out = acc.min
		case "MAX":
			out = acc.max
		case "AVG":
			out = acc.sum / float64(acc.count)
		}
		res.Rows = append(res.Rows, []any{key, out})
	}
	return res, nil
}
