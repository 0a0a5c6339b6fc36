// Package flatbase is a self-contained flat-file database engine. It
// stores typed tabular records in fixed-capacity CSV page files under a
// data directory, maintains a primary-key index per table, and executes
// filtered scans, equality joins, ordered queries and group-by
// aggregation directly against those files.
//
// The engine is single-threaded and synchronous: every operation
// reloads the persisted state it needs and runs to completion or fails
// with a typed error.
package flatbase

import (
	"fmt"
	"strings"

	"github.com/tuannm99/flatbase/internal/cond"
	"github.com/tuannm99/flatbase/internal/exec"
	"github.com/tuannm99/flatbase/internal/record"
	"github.com/tuannm99/flatbase/internal/storage"
)

// Database is the engine handle. All operations address tables under
// its data directory.
type Database struct {
	store *storage.Store
	exec  *exec.Executor
}

// Open binds a Database to a data directory, creating it if needed.
func Open(dataDir string) (*Database, error) {
	store, err := storage.NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	return &Database{store: store, exec: exec.New(store)}, nil
}

// Result is the projected output of a query: column names plus one
// typed value slice per row.
type Result = exec.Result

// ColumnDef declares one column at table creation: a name and one of
// the type tags int, float, bool, str, char.
type ColumnDef struct {
	Name string
	Type string
}

// OrderBy requests a globally ordered result: a column and "ASC" or
// "DESC".
type OrderBy struct {
	Column    string
	Direction string
}

func (o OrderBy) desc() (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(o.Direction)) {
	case "", "ASC":
		return false, nil
	case "DESC":
		return true, nil
	default:
		return false, fmt.Errorf("flatbase: bad order direction %q", o.Direction)
	}
}

func toExecOrder(o *OrderBy) (*exec.OrderBy, error) {
	if o == nil {
		return nil, nil
	}
	desc, err := o.desc()
	if err != nil {
		return nil, err
	}
	return &exec.OrderBy{Column: o.Column, Desc: desc}, nil
}

// Filter is a parsed boolean condition evaluated per row. A nil Filter
// matches every row.
type Filter = cond.Expr

// Condition is one flat-form (column, operator, value) triple.
type Condition = cond.Condition

// FlatFilter compiles flat triples under a single logical operator
// ("AND" or "OR") into a Filter.
func FlatFilter(conds []Condition, logical string) (Filter, error) {
	return cond.Flat(conds, logical)
}

// ParseFilter parses a textual boolean expression, e.g.
// "(age > 28 AND dept == HR) OR age <= 20", into a Filter. AND binds
// tighter than OR.
func ParseFilter(text string) (Filter, error) {
	return cond.Parse(text)
}

// TableExists reports whether a table directory exists.
func (db *Database) TableExists(name string) bool {
	return db.store.TableExists(name)
}

// CreateTable persists a new table: schema, empty metadata, empty
// primary-key index and an empty first page. The schema is immutable
// afterwards.
func (db *Database) CreateTable(name string, columns []ColumnDef, primaryKey string) error {
	if len(columns) == 0 {
		return fmt.Errorf("flatbase: table %s needs at least one column", name)
	}
	schema := record.Schema{PrimaryKey: primaryKey}
	for _, c := range columns {
		t, err := record.ParseType(c.Type)
		if err != nil {
			return err
		}
		schema.Cols = append(schema.Cols, record.Column{Name: c.Name, Type: t})
	}
	if schema.ColPos(primaryKey) < 0 {
		return fmt.Errorf("%w: primary key %s", ErrColumnNotFound, primaryKey)
	}
	_, err := db.store.CreateTable(name, schema)
	return err
}

// Columns returns the table's column names in schema order, without
// scanning any pages.
func (db *Database) Columns(table string) ([]string, error) {
	t, err := db.store.OpenTable(table)
	if err != nil {
		return nil, err
	}
	return t.Schema.ColumnNames(), nil
}

// DropTable removes the table's entire directory.
func (db *Database) DropTable(name string) error {
	return db.store.DropTable(name)
}

// Insert adds one row; values maps column name to textual value and
// must cover every schema column.
func (db *Database) Insert(table string, values map[string]string) error {
	return db.exec.Insert(table, values)
}

// Update overwrites the row addressed by column = value through the
// primary-key index. newValues must cover every schema column.
func (db *Database) Update(table, column, value string, newValues map[string]string) error {
	return db.exec.Update(table, column, value, newValues)
}

// Delete tombstones the row addressed by its primary key and recycles
// the row id.
func (db *Database) Delete(table, column, value string) error {
	return db.exec.Delete(table, column, value)
}

// ExecuteQuery scans a table with optional projection, filter and
// global ordering. Nil columns project the whole schema in order.
func (db *Database) ExecuteQuery(table string, columns []string, filter Filter, orderBy *OrderBy) (*Result, error) {
	ob, err := toExecOrder(orderBy)
	if err != nil {
		return nil, err
	}
	return db.exec.Query(table, columns, filter, ob)
}

// ExecuteJoinQuery behaves as ExecuteQuery when joinTable is empty;
// otherwise it performs a nested-loop equality join driven by
// joinCondition ("table.column==table.column").
func (db *Database) ExecuteJoinQuery(table string, columns []string, filter Filter, orderBy *OrderBy, joinTable, joinCondition string) (*Result, error) {
	ob, err := toExecOrder(orderBy)
	if err != nil {
		return nil, err
	}
	return db.exec.JoinQuery(table, columns, filter, ob, joinTable, joinCondition)
}

// PerformGroupBy aggregates one column per distinct value of another,
// with SUM, COUNT, MIN, MAX or AVG, in first-seen group order.
func (db *Database) PerformGroupBy(table, groupColumn, function, aggregateColumn string) (*Result, error) {
	return db.exec.GroupBy(table, groupColumn, function, aggregateColumn)
}
