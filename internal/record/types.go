package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrTypeConversion = errors.New("flatbase: value cannot be converted")
	ErrUnknownType    = errors.New("flatbase: unknown column type")
)

// ColumnType tags the declared type of a column. Coercion dispatches on
// the tag, never on the type-name string.
type ColumnType uint8

const (
	TypeInt ColumnType = iota
	TypeFloat
	TypeBool
	TypeStr
	TypeChar
)

var typeNames = map[ColumnType]string{
	TypeInt:   "int",
	TypeFloat: "float",
	TypeBool:  "bool",
	TypeStr:   "str",
	TypeChar:  "char",
}

func (t ColumnType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ParseType maps a schema type-name to its tag.
func ParseType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int":
		return TypeInt, nil
	case "float":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	case "str":
		return TypeStr, nil
	case "char":
		return TypeChar, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Coerce converts a textual field value to the declared column type.
// Int -> int64, Float -> float64, Bool -> bool (case-insensitive
// "true"/"false" only), Str/Char pass through unchanged.
func Coerce(value string, t ColumnType) (any, error) {
	switch t {
	case TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as %s", ErrTypeConversion, value, t)
		}
		return n, nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as %s", ErrTypeConversion, value, t)
		}
		return f, nil
	case TypeBool:
		switch strings.ToLower(value) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, fmt.Errorf("%w: %q as %s", ErrTypeConversion, value, t)
		}
	case TypeStr, TypeChar:
		return value, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

// Format renders a coerced value back to its on-disk textual form.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Compare orders two textual values under a declared type: -1, 0 or 1.
// Both sides are coerced first; a side that does not coerce fails.
func Compare(a, b string, t ColumnType) (int, error) {
	av, err := Coerce(a, t)
	if err != nil {
		return 0, err
	}
	bv, err := Coerce(b, t)
	if err != nil {
		return 0, err
	}
	return CompareValues(av, bv), nil
}

// CompareValues orders two already-coerced values of the same type.
func CompareValues(a, b any) int {
	switch x := a.(type) {
	case int64:
		y := b.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case bool:
		y := b.(bool)
		switch {
		case !x && y:
			return -1
		case x && !y:
			return 1
		}
		return 0
	default:
		return strings.Compare(Format(a), Format(b))
	}
}
