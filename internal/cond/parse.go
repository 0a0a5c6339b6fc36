package cond

import (
	"fmt"
	"strings"
	"unicode"
)

type tokKind int

const (
	tokWord tokKind = iota
	tokOp
	tokAnd
	tokOr
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
}

// Parse turns a textual boolean expression such as
//
//	(age > 28 AND dept == HR) OR age <= 20
//
// into a condition tree. An empty expression is a nil (always-true)
// condition.
func Parse(text string) (Expr, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("flatbase: unexpected token %q in condition", p.toks[p.pos].text)
	}
	return e, nil
}

func tokenize(s string) ([]token, error) {
	var toks []token
	var word strings.Builder

	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		word.Reset()
		switch w {
		case "AND":
			toks = append(toks, token{kind: tokAnd, text: w})
		case "OR":
			toks = append(toks, token{kind: tokOr, text: w})
		default:
			toks = append(toks, token{kind: tokWord, text: w})
		}
	}

	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == '(':
			flush()
			toks = append(toks, token{kind: tokLParen, text: "("})
		case r == ')':
			flush()
			toks = append(toks, token{kind: tokRParen, text: ")"})
		case r == '>' || r == '<':
			flush()
			op := string(r)
			if i+1 < len(rs) && rs[i+1] == '=' {
				op += "="
				i++
			}
			toks = append(toks, token{kind: tokOp, text: op})
		case r == '=' && i+1 < len(rs) && rs[i+1] == '=':
			flush()
			toks = append(toks, token{kind: tokOp, text: "=="})
			i++
		case r == '!' && i+1 < len(rs) && rs[i+1] == '=':
			flush()
			toks = append(toks, token{kind: tokOp, text: "!="})
			i++
		default:
			// a lone '=' or '!' stays inside the word; that is how the
			// or-equal literal suffix ("28=") survives tokenization
			word.WriteRune(r)
		}
	}
	flush()

	if len(toks) == 0 {
		return nil, fmt.Errorf("flatbase: empty condition")
	}
	return toks, nil
}

// Grammar, with AND binding tighter than OR:
//
//	expr   := term (OR term)*
//	term   := factor (AND factor)*
//	factor := '(' expr ')' | word op word
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOr {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = Or{L: left, R: right}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokAnd {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = And{L: left, R: right}
	}
}

func (p *parser) parseFactor() (Expr, error) {
	t, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("flatbase: condition ended unexpectedly")
	}

	if t.kind == tokLParen {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.next()
		if !ok || closing.kind != tokRParen {
			return nil, fmt.Errorf("flatbase: missing ')' in condition")
		}
		return e, nil
	}

	if t.kind != tokWord {
		return nil, fmt.Errorf("flatbase: expected column name, got %q", t.text)
	}
	op, ok := p.next()
	if !ok || op.kind != tokOp {
		return nil, fmt.Errorf("flatbase: expected comparison operator after %q", t.text)
	}
	val, ok := p.next()
	if !ok || val.kind != tokWord {
		return nil, fmt.Errorf("flatbase: expected literal after %q", op.text)
	}
	return Leaf{Column: t.text, Op: op.text, Value: val.text}, nil
}
