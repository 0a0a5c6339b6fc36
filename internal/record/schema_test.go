package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		Cols: []Column{
			{Name: "id", Type: TypeInt},
			{Name: "name", Type: TypeStr},
			{Name: "age", Type: TypeInt},
			{Name: "salary", Type: TypeFloat},
		},
		PrimaryKey: "id",
	}
}

func TestSchemaJSONPreservesColumnOrder(t *testing.T) {
	s := testSchema()

	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"columns":{"id":"int","name":"str","age":"int","salary":"float"},"primary_key":"id"}`,
		string(data))

	var back Schema
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, s, back)

	// round-trip a second time; order must still hold
	again, err := json.Marshal(back)
	require.NoError(t, err)
	require.Equal(t, string(data), string(again))
}

func TestSchemaLookups(t *testing.T) {
	s := testSchema()

	require.Equal(t, 4, s.NumCols())
	require.Equal(t, 0, s.ColPos("id"))
	require.Equal(t, 2, s.ColPos("age"))
	require.Equal(t, -1, s.ColPos("dept"))

	typ, ok := s.ColType("salary")
	require.True(t, ok)
	require.Equal(t, TypeFloat, typ)
	_, ok = s.ColType("dept")
	require.False(t, ok)

	require.Equal(t, []string{"id", "name", "age", "salary"}, s.ColumnNames())
}

func TestDecodeRow(t *testing.T) {
	s := testSchema()

	vals, err := s.DecodeRow([]string{"1", "Alice", "30", "50000.5"})
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), "Alice", int64(30), 50000.5}, vals)

	_, err = s.DecodeRow([]string{"1", "Alice"})
	require.ErrorIs(t, err, ErrTypeConversion)

	_, err = s.DecodeRow([]string{"x", "Alice", "30", "50000.5"})
	require.ErrorIs(t, err, ErrTypeConversion)
}

func TestIsTombstone(t *testing.T) {
	require.True(t, IsTombstone([]string{"", "", ""}))
	require.True(t, IsTombstone(nil))
	require.False(t, IsTombstone([]string{"", "x", ""}))
}
