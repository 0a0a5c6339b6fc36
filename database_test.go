package flatbase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	return db
}

func createEmployees(t *testing.T, db *Database) {
	t.Helper()
	require.NoError(t, db.CreateTable("employees", []ColumnDef{
		{Name: "id", Type: "int"},
		{Name: "name", Type: "str"},
		{Name: "age", Type: "int"},
		{Name: "dept", Type: "str"},
	}, "id"))
}

func seedEmployees(t *testing.T, db *Database) {
	t.Helper()
	for _, row := range [][4]string{
		{"1", "Alice", "30", "HR"},
		{"2", "Bob", "25", "IT"},
		{"3", "Carol", "35", "HR"},
	} {
		require.NoError(t, db.Insert("employees", map[string]string{
			"id": row[0], "name": row[1], "age": row[2], "dept": row[3],
		}))
	}
}

func TestCreateTableValidation(t *testing.T) {
	db := openTestDB(t)

	err := db.CreateTable("t", nil, "id")
	require.Error(t, err)

	err = db.CreateTable("t", []ColumnDef{{Name: "id", Type: "varchar"}}, "id")
	require.ErrorIs(t, err, ErrUnknownType)

	err = db.CreateTable("t", []ColumnDef{{Name: "id", Type: "int"}}, "missing")
	require.ErrorIs(t, err, ErrColumnNotFound)

	createEmployees(t, db)
	require.True(t, db.TableExists("employees"))
	err = db.CreateTable("employees", []ColumnDef{{Name: "id", Type: "int"}}, "id")
	require.ErrorIs(t, err, ErrTableExists)
}

func TestEndToEndFlatCondition(t *testing.T) {
	db := openTestDB(t)
	createEmployees(t, db)
	seedEmployees(t, db)

	filter, err := FlatFilter([]Condition{{Column: "age", Op: ">", Value: "28"}}, "AND")
	require.NoError(t, err)

	res, err := db.ExecuteQuery("employees", []string{"name"}, filter, nil)
	require.NoError(t, err)
	require.Equal(t, [][]any{{"Alice"}, {"Carol"}}, res.Rows)
}

func TestEndToEndParsedCondition(t *testing.T) {
	db := openTestDB(t)
	createEmployees(t, db)
	seedEmployees(t, db)

	filter, err := ParseFilter("(age > 28 AND dept == HR) OR age <= 25")
	require.NoError(t, err)

	res, err := db.ExecuteQuery("employees", []string{"name"}, filter, &OrderBy{Column: "name", Direction: "ASC"})
	require.NoError(t, err)
	require.Equal(t, [][]any{{"Alice"}, {"Bob"}, {"Carol"}}, res.Rows)
}

func TestEndToEndLifecycle(t *testing.T) {
	db := openTestDB(t)
	createEmployees(t, db)
	seedEmployees(t, db)

	err := db.Insert("employees", map[string]string{
		"id": "1", "name": "Impostor", "age": "99", "dept": "IT",
	})
	require.ErrorIs(t, err, ErrDuplicatePrimaryKey)

	require.NoError(t, db.Update("employees", "id", "2", map[string]string{
		"id": "2", "name": "Bob", "age": "26", "dept": "Sales",
	}))

	require.NoError(t, db.Delete("employees", "id", "3"))
	err = db.Delete("employees", "id", "3")
	require.ErrorIs(t, err, ErrPrimaryKeyNotFound)
	err = db.Delete("employees", "name", "Bob")
	require.ErrorIs(t, err, ErrInvalidDeleteTarget)

	res, err := db.ExecuteQuery("employees", nil, nil, &OrderBy{Column: "age", Direction: "DESC"})
	require.NoError(t, err)
	require.Equal(t, [][]any{
		{int64(1), "Alice", int64(30), "HR"},
		{int64(2), "Bob", int64(26), "Sales"},
	}, res.Rows)

	require.NoError(t, db.DropTable("employees"))
	require.False(t, db.TableExists("employees"))
	_, err = db.ExecuteQuery("employees", nil, nil, nil)
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestColumns(t *testing.T) {
	db := openTestDB(t)
	createEmployees(t, db)

	cols, err := db.Columns("employees")
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "age", "dept"}, cols)

	_, err = db.Columns("nope")
	require.ErrorIs(t, err, ErrTableNotFound)
}

func TestOrderByDirectionValidation(t *testing.T) {
	db := openTestDB(t)
	createEmployees(t, db)

	_, err := db.ExecuteQuery("employees", nil, nil, &OrderBy{Column: "age", Direction: "sideways"})
	require.Error(t, err)

	// empty direction defaults to ascending
	_, err = db.ExecuteQuery("employees", nil, nil, &OrderBy{Column: "age"})
	require.NoError(t, err)
}

func TestEndToEndJoinAndGroupBy(t *testing.T) {
	db := openTestDB(t)
	createEmployees(t, db)
	seedEmployees(t, db)

	require.NoError(t, db.CreateTable("depts", []ColumnDef{
		{Name: "dept", Type: "str"},
		{Name: "floor", Type: "int"},
	}, "dept"))
	require.NoError(t, db.Insert("depts", map[string]string{"dept": "HR", "floor": "2"}))
	require.NoError(t, db.Insert("depts", map[string]string{"dept": "IT", "floor": "3"}))

	res, err := db.ExecuteJoinQuery("employees", []string{"name", "floor"}, nil,
		&OrderBy{Column: "name", Direction: "ASC"}, "depts", "employees.dept==depts.dept")
	require.NoError(t, err)
	require.Equal(t, [][]any{
		{"Alice", int64(2)},
		{"Bob", int64(3)},
		{"Carol", int64(2)},
	}, res.Rows)

	agg, err := db.PerformGroupBy("employees", "dept", "SUM", "age")
	require.NoError(t, err)
	require.Equal(t, []string{"dept", "SUM(age)"}, agg.Columns)
	require.Equal(t, [][]any{{"HR", 65.0}, {"IT", 25.0}}, agg.Rows)
}

func TestErrorTaxonomyIsDistinct(t *testing.T) {
	all := []error{
		ErrTableNotFound, ErrTableExists, ErrColumnNotFound,
		ErrDuplicatePrimaryKey, ErrPrimaryKeyNotFound, ErrTypeConversion,
		ErrUnknownType, ErrUnsupportedOperator, ErrInvalidDeleteTarget,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				require.False(t, errors.Is(a, b), "%v vs %v", a, b)
			}
		}
	}
}
