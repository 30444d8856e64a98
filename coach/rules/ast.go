package rules

import (
	"strconv"
	"strings"
)

// Operator is an operator symbol or keyword as written in an expression
type Operator string

const (
	OpAdd      Operator = "+"
	OpSub      Operator = "-"
	OpMul      Operator = "*"
	OpDiv      Operator = "/"
	OpMod      Operator = "%"
	OpPow      Operator = "**"
	OpFloorDiv Operator = "//"

	OpLt Operator = "<"
	OpLe Operator = "<="
	OpGt Operator = ">"
	OpGe Operator = ">="
	OpEq Operator = "=="
	OpNe Operator = "!="

	OpAnd Operator = "and"
	OpOr  Operator = "or"
	OpNot Operator = "not"
)

// Expr is a node of a parsed expression
type Expr interface {
	String() string
	exprNode()
}

// Literal is a numeric or boolean constant
type Literal struct {
	Value float64
	Bool  bool // written as True or False
}

// Identifier names a value in the evaluation environment
type Identifier struct {
	Name string
}

// BinaryOp is an arithmetic operation
type BinaryOp struct {
	Op          Operator
	Left, Right Expr
}

// UnaryOp is a prefix operation
type UnaryOp struct {
	Op      Operator
	Operand Expr
}

// Comparison is a possibly chained comparison: Operands[i] Ops[i] Operands[i+1]
type Comparison struct {
	Ops      []Operator
	Operands []Expr
}

// BoolOp is a short-circuit and/or over two or more values
type BoolOp struct {
	Op     Operator
	Values []Expr
}

func (*Literal) exprNode()    {}
func (*Identifier) exprNode() {}
func (*BinaryOp) exprNode()   {}
func (*UnaryOp) exprNode()    {}
func (*Comparison) exprNode() {}
func (*BoolOp) exprNode()     {}

func (l *Literal) String() string {
	if l.Bool {
		if l.Value != 0 {
			return "True"
		}
		return "False"
	}
	return strconv.FormatFloat(l.Value, 'g', -1, 64)
}

func (i *Identifier) String() string { return i.Name }

func (b *BinaryOp) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

func (u *UnaryOp) String() string {
	if u.Op == OpNot {
		return "(not " + u.Operand.String() + ")"
	}
	return "(" + string(u.Op) + u.Operand.String() + ")"
}

func (c *Comparison) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(c.Operands[0].String())
	for i, op := range c.Ops {
		sb.WriteString(" " + string(op) + " ")
		sb.WriteString(c.Operands[i+1].String())
	}
	sb.WriteString(")")
	return sb.String()
}

func (b *BoolOp) String() string {
	parts := make([]string, len(b.Values))
	for i, v := range b.Values {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, " "+string(b.Op)+" ") + ")"
}
