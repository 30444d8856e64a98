package rules

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSyntax reports an expression that cannot be parsed
	ErrSyntax = errors.New("syntax error")
	// ErrDisallowed reports a parsed construct outside the allow-list
	ErrDisallowed = errors.New("disallowed expression")
	// ErrUnknownName reports an identifier missing from the environment
	ErrUnknownName = errors.New("unknown name")
	// ErrDivisionByZero reports division or modulo by zero
	ErrDivisionByZero = errors.New("division by zero")
	// ErrArithmetic reports a power with no real result or one that
	// overflows from finite operands
	ErrArithmetic = errors.New("arithmetic error")
)

// MaxDepth is the deepest expression tree Validate accepts
const MaxDepth = 64

// Env binds identifier names to numeric values
type Env map[string]float64

// Merge returns a new environment with the bindings of every env, later
// ones overriding earlier ones
func Merge(envs ...map[string]float64) Env {
	out := Env{}
	for _, env := range envs {
		for k, v := range env {
			out[k] = v
		}
	}
	return out
}

var allowedBinary = map[Operator]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true, OpMod: true, OpPow: true,
}

var allowedUnary = map[Operator]bool{
	OpSub: true, OpAdd: true,
}

var allowedCompare = map[Operator]bool{
	OpLt: true, OpLe: true, OpGt: true, OpGe: true, OpEq: true, OpNe: true,
}

// Validate rejects any node or operator outside the allow-list and any tree
// deeper than MaxDepth
func Validate(expr Expr) error {
	return validate(expr, 1)
}

func validate(expr Expr, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: nesting deeper than %d", ErrDisallowed, MaxDepth)
	}

	switch e := expr.(type) {
	case *Literal, *Identifier:
		return nil

	case *BinaryOp:
		if !allowedBinary[e.Op] {
			return fmt.Errorf("%w: operator %q", ErrDisallowed, e.Op)
		}
		if err := validate(e.Left, depth+1); err != nil {
			return err
		}
		return validate(e.Right, depth+1)

	case *UnaryOp:
		if !allowedUnary[e.Op] {
			return fmt.Errorf("%w: operator %q", ErrDisallowed, e.Op)
		}
		return validate(e.Operand, depth+1)

	case *Comparison:
		if len(e.Ops) == 0 || len(e.Operands) != len(e.Ops)+1 {
			return fmt.Errorf("%w: malformed comparison", ErrDisallowed)
		}
		for _, op := range e.Ops {
			if !allowedCompare[op] {
				return fmt.Errorf("%w: operator %q", ErrDisallowed, op)
			}
		}
		for _, operand := range e.Operands {
			if err := validate(operand, depth+1); err != nil {
				return err
			}
		}
		return nil

	case *BoolOp:
		if e.Op != OpAnd && e.Op != OpOr {
			return fmt.Errorf("%w: operator %q", ErrDisallowed, e.Op)
		}
		if len(e.Values) < 2 {
			return fmt.Errorf("%w: malformed %s", ErrDisallowed, e.Op)
		}
		for _, v := range e.Values {
			if err := validate(v, depth+1); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: node %T", ErrDisallowed, expr)
	}
}

// Compile parses and validates an expression
func Compile(src string) (Expr, error) {
	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if err := Validate(expr); err != nil {
		return nil, err
	}
	return expr, nil
}

// Eval evaluates a validated expression. Booleans are represented as 1 and
// 0; and/or return the deciding operand and short-circuit.
func Eval(expr Expr, env Env) (float64, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil

	case *Identifier:
		v, ok := env[e.Name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownName, e.Name)
		}
		return v, nil

	case *UnaryOp:
		v, err := Eval(e.Operand, env)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case OpSub:
			return -v, nil
		case OpAdd:
			return v, nil
		}

	case *BinaryOp:
		left, err := Eval(e.Left, env)
		if err != nil {
			return 0, err
		}
		right, err := Eval(e.Right, env)
		if err != nil {
			return 0, err
		}
		return arithmetic(e.Op, left, right)

	case *Comparison:
		left, err := Eval(e.Operands[0], env)
		if err != nil {
			return 0, err
		}
		for i, op := range e.Ops {
			right, err := Eval(e.Operands[i+1], env)
			if err != nil {
				return 0, err
			}
			if !compare(op, left, right) {
				return 0, nil
			}
			left = right
		}
		return 1, nil

	case *BoolOp:
		var v float64
		for _, operand := range e.Values {
			var err error
			v, err = Eval(operand, env)
			if err != nil {
				return 0, err
			}
			truthy := v != 0
			if (e.Op == OpOr && truthy) || (e.Op == OpAnd && !truthy) {
				return v, nil
			}
		}
		return v, nil
	}

	return 0, fmt.Errorf("%w: cannot evaluate %s", ErrDisallowed, expr)
}

func arithmetic(op Operator, a, b float64) (float64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case OpMod:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		// result takes the sign of the divisor
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return r, nil
	case OpPow:
		if a == 0 && b < 0 {
			return 0, ErrDivisionByZero
		}
		r := math.Pow(a, b)
		if math.IsNaN(r) && !math.IsNaN(a) && !math.IsNaN(b) {
			return 0, fmt.Errorf("%w: %v ** %v has no real result", ErrArithmetic, a, b)
		}
		if math.IsInf(r, 0) && !math.IsInf(a, 0) && !math.IsInf(b, 0) {
			return 0, fmt.Errorf("%w: %v ** %v overflows", ErrArithmetic, a, b)
		}
		return r, nil
	}
	return 0, fmt.Errorf("%w: operator %q", ErrDisallowed, op)
}

func compare(op Operator, a, b float64) bool {
	switch op {
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	}
	return false
}

// Truthy evaluates expr and reports whether the result is non-zero. NaN
// counts as true since it is not equal to zero.
func Truthy(expr Expr, env Env) (bool, error) {
	v, err := Eval(expr, env)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Match compiles and evaluates src against env. Any parse, validation or
// evaluation error makes it return false; it never panics.
func Match(src string, env Env) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()

	expr, err := Compile(src)
	if err != nil {
		return false
	}
	ok, err := Truthy(expr, env)
	return err == nil && ok
}
