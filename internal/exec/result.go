package exec

// Result is the generic query result returned to the caller: the
// projected column names and one typed value slice per row.
type Result struct {
	Columns []string
	Rows    [][]any
}

// OrderBy requests a globally ordered result on one column.
type OrderBy struct {
	Column string
	Desc   bool
}
