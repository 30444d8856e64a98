package rules

import (
	"fmt"
)

// maxNesting bounds parser recursion for pathological input
const maxNesting = 256

type parser struct {
	tokens []token
	pos    int
	depth  int
}

// Parse builds an expression tree. The grammar, loosest binding first:
//
//	or      := and ("or" and)*
//	and     := not ("and" not)*
//	not     := "not" not | cmp
//	cmp     := sum (cmpop sum)*
//	sum     := term (("+" | "-") term)*
//	term    := unary (("*" | "/" | "//" | "%") unary)*
//	unary   := ("-" | "+") unary | power
//	power   := atom ("**" unary)?
//	atom    := number | identifier | "True" | "False" | "(" or ")"
//
// Parse accepts some forms that Validate later rejects, such as "not".
func Parse(src string) (Expr, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s", tok)
	}
	return expr, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isKeyword(word string) bool {
	tok := p.peek()
	return tok.kind == tokIdent && tok.text == word
}

func (p *parser) isOp(ops ...Operator) (Operator, bool) {
	tok := p.peek()
	if tok.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if tok.text == string(op) {
			return op, true
		}
	}
	return "", false
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, fmt.Sprintf(format, args...), tok.pos)
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxNesting {
		return p.errorf(p.peek(), "expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseOr() (Expr, error) {
	return p.parseBool(OpOr, p.parseAnd)
}

func (p *parser) parseAnd() (Expr, error) {
	return p.parseBool(OpAnd, p.parseNot)
}

func (p *parser) parseBool(op Operator, operand func() (Expr, error)) (Expr, error) {
	first, err := operand()
	if err != nil {
		return nil, err
	}

	values := []Expr{first}
	for p.isKeyword(string(op)) {
		p.next()
		v, err := operand()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	if len(values) == 1 {
		return first, nil
	}
	return &BoolOp{Op: op, Values: values}, nil
}

func (p *parser) parseNot() (Expr, error) {
	if !p.isKeyword(string(OpNot)) {
		return p.parseComparison()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.next()
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &UnaryOp{Op: OpNot, Operand: operand}, nil
}

func (p *parser) parseComparison() (Expr, error) {
	first, err := p.parseSum()
	if err != nil {
		return nil, err
	}

	var ops []Operator
	operands := []Expr{first}
	for {
		op, ok := p.isOp(OpLt, OpLe, OpGt, OpGe, OpEq, OpNe)
		if !ok {
			break
		}
		p.next()
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		operands = append(operands, right)
	}

	if len(ops) == 0 {
		return first, nil
	}
	return &Comparison{Ops: ops, Operands: operands}, nil
}

func (p *parser) parseSum() (Expr, error) {
	return p.parseBinary(p.parseTerm, OpAdd, OpSub)
}

func (p *parser) parseTerm() (Expr, error) {
	return p.parseBinary(p.parseUnary, OpMul, OpDiv, OpFloorDiv, OpMod)
}

func (p *parser) parseBinary(operand func() (Expr, error), ops ...Operator) (Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := p.isOp(ops...)
		if !ok {
			return left, nil
		}
		p.next()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	op, ok := p.isOp(OpSub, OpAdd)
	if !ok {
		return p.parsePower()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.next()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &UnaryOp{Op: op, Operand: operand}, nil
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	if _, ok := p.isOp(OpPow); !ok {
		return base, nil
	}
	p.next()

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	// Right associative and binds tighter than a unary minus on its left:
	// -2 ** 2 is -(2 ** 2), 2 ** -1 is 2 ** (-1)
	exponent, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &BinaryOp{Op: OpPow, Left: base, Right: exponent}, nil
}

func (p *parser) parseAtom() (Expr, error) {
	tok := p.next()

	switch tok.kind {
	case tokNumber:
		return &Literal{Value: tok.num}, nil

	case tokIdent:
		switch tok.text {
		case "True":
			return &Literal{Value: 1, Bool: true}, nil
		case "False":
			return &Literal{Value: 0, Bool: true}, nil
		case string(OpAnd), string(OpOr), string(OpNot):
			return nil, p.errorf(tok, "unexpected keyword %s", tok)
		}
		if p.peek().kind == tokLParen {
			return nil, p.errorf(tok, "function calls are not allowed")
		}
		return &Identifier{Name: tok.text}, nil

	case tokLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()

		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected \")\", got %s", closing)
		}
		return inner, nil

	default:
		return nil, p.errorf(tok, "unexpected %s", tok)
	}
}
