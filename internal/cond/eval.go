// Package cond parses and evaluates boolean filter expressions over a
// single row. Two surface forms feed the same tagged tree: flat
// (column, operator, value) triples under one logical operator, and a
// textual expression with parentheses, AND and OR. AND binds tighter
// than OR; `a AND b OR c` means `(a AND b) OR c`.
package cond

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tuannm99/flatbase/internal/record"
)

var ErrUnsupportedOperator = errors.New("flatbase: unsupported operator")

// Row is the evaluation context: textual field values keyed by column
// name (plain or table-qualified) plus the declared type per key.
type Row struct {
	Fields map[string]string
	Types  map[string]record.ColumnType
}

// Expr is a node of the condition tree.
type Expr interface {
	Eval(row Row) (bool, error)
}

// Eval evaluates an optional condition; a nil condition is true.
func Eval(e Expr, row Row) (bool, error) {
	if e == nil {
		return true, nil
	}
	return e.Eval(row)
}

type And struct{ L, R Expr }

func (a And) Eval(row Row) (bool, error) {
	l, err := a.L.Eval(row)
	if err != nil {
		return false, err
	}
	if !l {
		return false, nil
	}
	return a.R.Eval(row)
}

type Or struct{ L, R Expr }

func (o Or) Eval(row Row) (bool, error) {
	l, err := o.L.Eval(row)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return o.R.Eval(row)
}

// Leaf compares one column against a literal. Typed leaves come from
// the flat-triple form and coerce the literal to the column's declared
// type before comparing. Untyped leaves come from the textual form and
// follow its rules: ordering operators compare as integers, equality
// compares as strings.
type Leaf struct {
	Column string
	Op     string
	Value  string
	Typed  bool
}

func (l Leaf) Eval(row Row) (bool, error) {
	if l.Typed {
		return l.evalTyped(row)
	}
	return l.evalText(row)
}

func (l Leaf) evalTyped(row Row) (bool, error) {
	text, ok := row.Fields[l.Column]
	if !ok {
		// a condition on a column absent from the row is false, not
		// an error
		return false, nil
	}
	typ, ok := row.Types[l.Column]
	if !ok {
		return false, nil
	}
	cmp, err := record.Compare(text, l.Value, typ)
	if err != nil {
		return false, err
	}
	switch l.Op {
	case "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case ">":
		return cmp > 0, nil
	case "<":
		return cmp < 0, nil
	case ">=":
		return cmp >= 0, nil
	case "<=":
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedOperator, l.Op)
	}
}

func (l Leaf) evalText(row Row) (bool, error) {
	text, ok := row.Fields[l.Column]
	if !ok {
		return false, nil
	}

	op := l.Op
	lit := l.Value
	// a trailing '=' on the literal is the or-equal spelling of > and <
	if strings.HasSuffix(lit, "=") && (op == ">" || op == "<") {
		op += "="
		lit = strings.TrimSuffix(lit, "=")
	}

	switch op {
	case "==":
		return text == lit, nil
	case ">", "<", ">=", "<=":
		fieldN, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: %q as int", record.ErrTypeConversion, text)
		}
		litN, err := strconv.ParseInt(strings.TrimSpace(lit), 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: %q as int", record.ErrTypeConversion, lit)
		}
		switch op {
		case ">":
			return fieldN > litN, nil
		case "<":
			return fieldN < litN, nil
		case ">=":
			return fieldN >= litN, nil
		default:
			return fieldN <= litN, nil
		}
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
}

// Condition is one flat-form triple.
type Condition struct {
	Column string
	Op     string
	Value  string
}

// Flat compiles flat triples joined by a single logical operator
// ("AND" or "OR"; empty defaults to AND) into a condition tree.
func Flat(conds []Condition, logical string) (Expr, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	var op string
	switch strings.ToUpper(strings.TrimSpace(logical)) {
	case "", "AND":
		op = "AND"
	case "OR":
		op = "OR"
	default:
		return nil, fmt.Errorf("%w: logical %q", ErrUnsupportedOperator, logical)
	}

	var root Expr = Leaf{Column: conds[0].Column, Op: conds[0].Op, Value: conds[0].Value, Typed: true}
	for _, c := range conds[1:] {
		leaf := Leaf{Column: c.Column, Op: c.Op, Value: c.Value, Typed: true}
		if op == "AND" {
			root = And{L: root, R: leaf}
		} else {
			root = Or{L: root, R: leaf}
		}
	}
	return root, nil
}
