package logic

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseError describes why a logic string could not be parsed. Parsing is
// total: malformed input yields a ParseError value, never a panic.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse validation logic at offset %d: %s", e.Pos, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokAnd
	tokIf
	tokThen
	tokManual
	tokFieldPresent // carries the quoted path as text
)

type token struct {
	kind tokenKind
	text string // field path for tokFieldPresent
	pos  int
}

// Parse converts a validation-logic string into an AST. Keywords are
// case-sensitive; string arguments accept single or double quotes.
func Parse(input string) (Expr, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok.pos, "unexpected trailing input")
	}
	return expr, nil
}

type parser struct {
	input string
	toks  []token
	next  int
}

func (p *parser) peek() token { return p.toks[p.next] }

func (p *parser) advance() token {
	t := p.toks[p.next]
	if t.kind != tokEOF {
		p.next++
	}
	return t
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &ParseError{Input: p.input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// parseExpr implements: expr := primary (AND primary)*
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

// parsePrimary implements: primary := field_present | IF expr THEN expr | manual_review_required
func (p *parser) parsePrimary() (Expr, error) {
	tok := p.advance()
	switch tok.kind {
	case tokFieldPresent:
		if tok.text == "" {
			return nil, p.errorf(tok.pos, "field_present requires a non-empty path")
		}
		return FieldPresent{Path: tok.text}, nil
	case tokManual:
		return ManualReview{}, nil
	case tokIf:
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		then := p.advance()
		if then.kind != tokThen {
			return nil, p.errorf(then.pos, "expected THEN after IF condition")
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return If{Cond: cond, Then: body}, nil
	case tokEOF:
		return nil, p.errorf(tok.pos, "unexpected end of expression")
	default:
		return nil, p.errorf(tok.pos, "unexpected token")
	}
}

func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		if unicode.IsSpace(c) {
			i++
			continue
		}
		start := i
		word := scanWord(input, i)
		switch word {
		case "AND":
			toks = append(toks, token{kind: tokAnd, pos: start})
			i += len(word)
		case "IF":
			toks = append(toks, token{kind: tokIf, pos: start})
			i += len(word)
		case "THEN":
			toks = append(toks, token{kind: tokThen, pos: start})
			i += len(word)
		case "manual_review_required":
			toks = append(toks, token{kind: tokManual, pos: start})
			i += len(word)
		case "field_present":
			path, consumed, err := scanCall(input, i+len(word))
			if err != nil {
				return nil, &ParseError{Input: input, Pos: start, Msg: err.Error()}
			}
			toks = append(toks, token{kind: tokFieldPresent, text: path, pos: start})
			i += len(word) + consumed
		default:
			if word == "" {
				return nil, &ParseError{Input: input, Pos: start, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			return nil, &ParseError{Input: input, Pos: start, Msg: fmt.Sprintf("unknown keyword %q", word)}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(input)})
	return toks, nil
}

// scanWord reads a run of identifier characters starting at i.
func scanWord(input string, i int) string {
	j := i
	for j < len(input) {
		c := input[j]
		if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			j++
			continue
		}
		break
	}
	return input[i:j]
}

// scanCall reads "( 'path' )" following a field_present keyword and returns
// the path plus the number of bytes consumed.
func scanCall(input string, i int) (path string, consumed int, err error) {
	j := i
	j = skipSpace(input, j)
	if j >= len(input) || input[j] != '(' {
		return "", 0, fmt.Errorf("field_present must be followed by '('")
	}
	j++
	j = skipSpace(input, j)
	if j >= len(input) || (input[j] != '\'' && input[j] != '"') {
		return "", 0, fmt.Errorf("field_present argument must be a quoted string")
	}
	quote := input[j]
	j++
	end := strings.IndexByte(input[j:], quote)
	if end < 0 {
		return "", 0, fmt.Errorf("unterminated string in field_present")
	}
	path = input[j : j+end]
	j += end + 1
	j = skipSpace(input, j)
	if j >= len(input) || input[j] != ')' {
		return "", 0, fmt.Errorf("missing ')' after field_present argument")
	}
	j++
	return path, j - i, nil
}

func skipSpace(input string, i int) int {
	for i < len(input) && (input[i] == ' ' || input[i] == '\t') {
		i++
	}
	return i
}
