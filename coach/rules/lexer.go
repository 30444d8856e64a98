package rules

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.text)
}

// twoCharOps must be tried before single characters
var twoCharOps = []string{"**", "//", "<=", ">=", "==", "!="}

const singleCharOps = "+-*/%<>"

// tokenize splits an expression into tokens. Anything that is not a number,
// identifier, arithmetic or comparison operator, or parenthesis is rejected.
func tokenize(src string) ([]token, error) {
	runes := []rune(src)
	var tokens []token

	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i = scanNumber(runes, i)
			text := string(runes[start:i])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid number %q at offset %d", ErrSyntax, text, start)
			}
			if i < len(runes) && (isIdentStart(runes[i]) || runes[i] == '.') {
				return nil, fmt.Errorf("%w: malformed number at offset %d", ErrSyntax, start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: v, pos: start})

		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), pos: start})

		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++

		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++

		case r == '\'' || r == '"':
			return nil, fmt.Errorf("%w: string literals are not allowed (offset %d)", ErrSyntax, i)

		case r == '.':
			return nil, fmt.Errorf("%w: attribute access is not allowed (offset %d)", ErrSyntax, i)

		case r == '[':
			return nil, fmt.Errorf("%w: subscripts are not allowed (offset %d)", ErrSyntax, i)

		default:
			op := matchOp(runes, i)
			if op == "" {
				return nil, fmt.Errorf("%w: unexpected character %q at offset %d", ErrSyntax, r, i)
			}
			tokens = append(tokens, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}

	return append(tokens, token{kind: tokEOF, pos: len(runes)}), nil
}

func scanNumber(runes []rune, i int) int {
	for i < len(runes) && unicode.IsDigit(runes[i]) {
		i++
	}
	if i < len(runes) && runes[i] == '.' {
		i++
		for i < len(runes) && unicode.IsDigit(runes[i]) {
			i++
		}
	}
	if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
		j := i + 1
		if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
			j++
		}
		if j < len(runes) && unicode.IsDigit(runes[j]) {
			i = j
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
		}
	}
	return i
}

func matchOp(runes []rune, i int) string {
	if i+1 < len(runes) {
		pair := string(runes[i : i+2])
		for _, op := range twoCharOps {
			if pair == op {
				return op
			}
		}
	}
	for _, c := range singleCharOps {
		if runes[i] == c {
			return string(c)
		}
	}
	return ""
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
