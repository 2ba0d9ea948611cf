package fold

import (
	"strconv"

	"github.com/aleph-lang/constant-folding/internal/ast"
	"github.com/aleph-lang/constant-folding/internal/errors"
)

type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
)

func (op arithOp) String() string {
	switch op {
	case opAdd:
		return "Add"
	case opSub:
		return "Sub"
	case opMul:
		return "Mul"
	case opDiv:
		return "Div"
	default:
		return "unknown"
	}
}

type compareOp int

const (
	opEq compareOp = iota
	opLE
)

func (op compareOp) String() string {
	if op == opEq {
		return "Eq"
	}
	return "LE"
}

func parseInt(n ast.Node, operation string) (int64, error) {
	v, err := strconv.ParseInt(n.StringValue(), 10, 64)
	if err != nil {
		return 0, errors.MalformedLiteral("integer", n.StringValue(), operation)
	}
	return v, nil
}

// parseFloat accepts both Int and Float text
func parseFloat(n ast.Node, operation string) (float64, error) {
	v, err := strconv.ParseFloat(n.StringValue(), 64)
	if err != nil {
		return 0, errors.MalformedLiteral("float", n.StringValue(), operation)
	}
	return v, nil
}

// parseBool accepts exactly "true" and "false"
func parseBool(n ast.Node, operation string) (bool, error) {
	switch n.StringValue() {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.MalformedLiteral("boolean", n.StringValue(), operation)
	}
}

func formatInt(v int64) ast.Node { return &ast.Int{Value: strconv.FormatInt(v, 10)} }

func formatFloat(v float64) ast.Node {
	return &ast.Float{Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

func formatBool(v bool) ast.Node { return &ast.Bool{Value: strconv.FormatBool(v)} }

func isNumeric(n ast.Node) bool {
	k := n.Kind()
	return k == ast.KindInt || k == ast.KindFloat
}

// evalArith computes l op r when both operands are numeric literals.
// Int op Int stays integral; any Float operand promotes to Float.
// The boolean result is false when the operands are not both numeric literals.
func evalArith(op arithOp, l, r ast.Node) (ast.Node, bool, error) {
	if !isNumeric(l) || !isNumeric(r) {
		return nil, false, nil
	}

	if l.Kind() == ast.KindInt && r.Kind() == ast.KindInt {
		a, err := parseInt(l, op.String())
		if err != nil {
			return nil, false, err
		}
		b, err := parseInt(r, op.String())
		if err != nil {
			return nil, false, err
		}

		switch op {
		case opAdd:
			return formatInt(a + b), true, nil
		case opSub:
			return formatInt(a - b), true, nil
		case opMul:
			return formatInt(a * b), true, nil
		case opDiv:
			if b == 0 {
				return nil, false, errors.DivisionByZero(l.StringValue())
			}
			return formatInt(a / b), true, nil
		}
		return nil, false, nil
	}

	a, err := parseFloat(l, op.String())
	if err != nil {
		return nil, false, err
	}
	b, err := parseFloat(r, op.String())
	if err != nil {
		return nil, false, err
	}

	switch op {
	case opAdd:
		return formatFloat(a + b), true, nil
	case opSub:
		return formatFloat(a - b), true, nil
	case opMul:
		return formatFloat(a * b), true, nil
	case opDiv:
		return formatFloat(a / b), true, nil
	}
	return nil, false, nil
}

// evalNeg negates a numeric literal
func evalNeg(n ast.Node) (ast.Node, bool, error) {
	switch n.Kind() {
	case ast.KindInt:
		v, err := parseInt(n, "Neg")
		if err != nil {
			return nil, false, err
		}
		return formatInt(-v), true, nil
	case ast.KindFloat:
		v, err := parseFloat(n, "Neg")
		if err != nil {
			return nil, false, err
		}
		return formatFloat(-v), true, nil
	}
	return nil, false, nil
}

// evalLogic computes And/Or over two Bool literals
func evalLogic(isAnd bool, l, r ast.Node) (ast.Node, bool, error) {
	if l.Kind() != ast.KindBool || r.Kind() != ast.KindBool {
		return nil, false, nil
	}

	operation := "Or"
	if isAnd {
		operation = "And"
	}
	a, err := parseBool(l, operation)
	if err != nil {
		return nil, false, err
	}
	b, err := parseBool(r, operation)
	if err != nil {
		return nil, false, err
	}

	if isAnd {
		return formatBool(a && b), true, nil
	}
	return formatBool(a || b), true, nil
}

// evalNot inverts a Bool literal
func evalNot(n ast.Node) (ast.Node, bool, error) {
	if n.Kind() != ast.KindBool {
		return nil, false, nil
	}
	v, err := parseBool(n, "Not")
	if err != nil {
		return nil, false, err
	}
	return formatBool(!v), true, nil
}

// evalCompare folds Eq and LE over simple operands.
//
// When an identifier is involved only textual identity is decidable: equal
// texts fold to true, anything else stays unevaluated. Two literals are
// compared numerically when both are numeric, as booleans when both are Bool,
// and by text otherwise.
func evalCompare(op compareOp, l, r ast.Node) (ast.Node, bool, error) {
	if !ast.IsSimple(l) || !ast.IsSimple(r) {
		return nil, false, nil
	}

	if l.Kind() == ast.KindIdent || r.Kind() == ast.KindIdent {
		if l.StringValue() == r.StringValue() {
			return formatBool(true), true, nil
		}
		return nil, false, nil
	}

	var result bool

	switch {
	case l.Kind() == ast.KindInt && r.Kind() == ast.KindInt:
		a, err := parseInt(l, op.String())
		if err != nil {
			return nil, false, err
		}
		b, err := parseInt(r, op.String())
		if err != nil {
			return nil, false, err
		}
		result = a == b
		if op == opLE {
			result = a <= b
		}
	case isNumeric(l) && isNumeric(r):
		a, err := parseFloat(l, op.String())
		if err != nil {
			return nil, false, err
		}
		b, err := parseFloat(r, op.String())
		if err != nil {
			return nil, false, err
		}
		result = a == b
		if op == opLE {
			result = a <= b
		}
	case l.Kind() == ast.KindBool && r.Kind() == ast.KindBool:
		a, err := parseBool(l, op.String())
		if err != nil {
			return nil, false, err
		}
		b, err := parseBool(r, op.String())
		if err != nil {
			return nil, false, err
		}
		result = a == b
		if op == opLE {
			result = !a || b
		}
	default:
		ls, rs := l.StringValue(), r.StringValue()
		result = ls == rs
		if op == opLE {
			result = ls <= rs
		}
	}

	return formatBool(result), true, nil
}
