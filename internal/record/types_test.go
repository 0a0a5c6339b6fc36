package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for name, want := range map[string]ColumnType{
		"int":   TypeInt,
		"float": TypeFloat,
		"bool":  TypeBool,
		"str":   TypeStr,
		"char":  TypeChar,
		" Int ": TypeInt,
	} {
		got, err := ParseType(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseType("varchar")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestCoerce(t *testing.T) {
	v, err := Coerce("42", TypeInt)
	require.NoError(t, err)
	require.Equal(t, int64(42), v)

	v, err = Coerce("-7", TypeInt)
	require.NoError(t, err)
	require.Equal(t, int64(-7), v)

	v, err = Coerce("3.5", TypeFloat)
	require.NoError(t, err)
	require.Equal(t, 3.5, v)

	v, err = Coerce("TRUE", TypeBool)
	require.NoError(t, err)
	require.Equal(t, true, v)

	v, err = Coerce("false", TypeBool)
	require.NoError(t, err)
	require.Equal(t, false, v)

	v, err = Coerce("hello", TypeStr)
	require.NoError(t, err)
	require.Equal(t, "hello", v)

	_, err = Coerce("abc", TypeInt)
	require.ErrorIs(t, err, ErrTypeConversion)

	_, err = Coerce("3.5", TypeInt)
	require.ErrorIs(t, err, ErrTypeConversion)

	_, err = Coerce("yes", TypeBool)
	require.ErrorIs(t, err, ErrTypeConversion)

	_, err = Coerce("1", TypeBool)
	require.ErrorIs(t, err, ErrTypeConversion)
}

func TestFormatRoundTrip(t *testing.T) {
	require.Equal(t, "42", Format(int64(42)))
	require.Equal(t, "3.5", Format(3.5))
	require.Equal(t, "true", Format(true))
	require.Equal(t, "false", Format(false))
	require.Equal(t, "hi", Format("hi"))
	require.Equal(t, "", Format(nil))
}

func TestCompare(t *testing.T) {
	// numeric, not lexicographic
	cmp, err := Compare("10", "2", TypeInt)
	require.NoError(t, err)
	require.Equal(t, 1, cmp)

	cmp, err = Compare("2", "10", TypeInt)
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = Compare("7", "7", TypeInt)
	require.NoError(t, err)
	require.Equal(t, 0, cmp)

	cmp, err = Compare("1.5", "2.5", TypeFloat)
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = Compare("abc", "abd", TypeStr)
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	cmp, err = Compare("false", "true", TypeBool)
	require.NoError(t, err)
	require.Equal(t, -1, cmp)

	_, err = Compare("x", "2", TypeInt)
	require.ErrorIs(t, err, ErrTypeConversion)
}
