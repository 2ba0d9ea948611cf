package fold

import (
	"testing"

	"github.com/aleph-lang/constant-folding/internal/ast"
	"github.com/aleph-lang/constant-folding/internal/errors"
)

func intLit(v string) ast.Node   { return &ast.Int{Value: v} }
func floatLit(v string) ast.Node { return &ast.Float{Value: v} }
func boolLit(v string) ast.Node  { return &ast.Bool{Value: v} }
func strLit(v string) ast.Node   { return &ast.String{Value: v} }
func ident(v string) ast.Node    { return &ast.Ident{Value: v} }
func variable(n string) ast.Node { return &ast.Var{Name: n} }
func unit() ast.Node             { return &ast.Unit{} }

func let(name string, value, expr ast.Node) ast.Node {
	return &ast.Let{Var: name, Value: value, Expr: expr}
}

func seq(a, b ast.Node) ast.Node { return &ast.Stmts{Expr1: a, Expr2: b} }

// mustTransform folds node and fails the test on error
func mustTransform(t *testing.T, node ast.Node) ast.Node {
	t.Helper()
	out, err := Transform(node)
	if err != nil {
		t.Fatalf("Transform(%s) failed: %v", node, err)
	}
	return out
}

func expectTree(t *testing.T, got, want ast.Node) {
	t.Helper()
	if !ast.Equal(got, want) {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

// TestLiteralArithmetic tests evaluation of arithmetic over literal operands
func TestLiteralArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		input    ast.Node
		expected ast.Node
	}{
		{"Integer addition", &ast.Add{NumberExpr1: intLit("3"), NumberExpr2: intLit("4")}, intLit("7")},
		{"Integer subtraction", &ast.Sub{NumberExpr1: intLit("10"), NumberExpr2: intLit("13")}, intLit("-3")},
		{"Integer multiplication", &ast.Mul{NumberExpr1: intLit("5"), NumberExpr2: intLit("6")}, intLit("30")},
		{"Integer division truncates", &ast.Div{NumberExpr1: intLit("7"), NumberExpr2: intLit("2")}, intLit("3")},
		{"Float plus Int promotes", &ast.Add{NumberExpr1: floatLit("1.5"), NumberExpr2: intLit("2")}, floatLit("3.5")},
		{"Int minus Float promotes", &ast.Sub{NumberExpr1: intLit("1"), NumberExpr2: floatLit("0.25")}, floatLit("0.75")},
		{"Float multiplication", &ast.Mul{NumberExpr1: floatLit("2.0"), NumberExpr2: floatLit("3")}, floatLit("6")},
		{"Float division", &ast.Div{NumberExpr1: intLit("7"), NumberExpr2: floatLit("2")}, floatLit("3.5")},
		{"Float division by zero", &ast.Div{NumberExpr1: floatLit("1"), NumberExpr2: intLit("0")}, floatLit("+Inf")},
		{"Nested", &ast.Mul{
			NumberExpr1: &ast.Add{NumberExpr1: intLit("1"), NumberExpr2: intLit("2")},
			NumberExpr2: &ast.Neg{Expr: intLit("3")},
		}, intLit("-9")},
		{"Negate float", &ast.Neg{Expr: floatLit("2.5")}, floatLit("-2.5")},
		{"String operand left alone", &ast.Add{NumberExpr1: strLit("a"), NumberExpr2: intLit("1")},
			&ast.Add{NumberExpr1: strLit("a"), NumberExpr2: intLit("1")}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expectTree(t, mustTransform(t, test.input), test.expected)
		})
	}
}

// TestBooleanEvaluation tests And, Or and Not over boolean literals
func TestBooleanEvaluation(t *testing.T) {
	tests := []struct {
		name     string
		input    ast.Node
		expected ast.Node
	}{
		{"And true false", &ast.And{BoolExpr1: boolLit("true"), BoolExpr2: boolLit("false")}, boolLit("false")},
		{"And true true", &ast.And{BoolExpr1: boolLit("true"), BoolExpr2: boolLit("true")}, boolLit("true")},
		{"Or false true", &ast.Or{BoolExpr1: boolLit("false"), BoolExpr2: boolLit("true")}, boolLit("true")},
		{"Or false false", &ast.Or{BoolExpr1: boolLit("false"), BoolExpr2: boolLit("false")}, boolLit("false")},
		{"Not true", &ast.Not{BoolExpr: boolLit("true")}, boolLit("false")},
		{"Not false", &ast.Not{BoolExpr: boolLit("false")}, boolLit("true")},
		{"Not of comparison", &ast.Not{BoolExpr: &ast.Eq{Expr1: intLit("1"), Expr2: intLit("2")}}, boolLit("true")},
		{"And with variable", &ast.And{BoolExpr1: variable("p"), BoolExpr2: boolLit("true")},
			&ast.And{BoolExpr1: variable("p"), BoolExpr2: boolLit("true")}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expectTree(t, mustTransform(t, test.input), test.expected)
		})
	}
}

// TestComparison tests Eq and LE folding
func TestComparison(t *testing.T) {
	tests := []struct {
		name     string
		input    ast.Node
		expected ast.Node
	}{
		{"Int equal", &ast.Eq{Expr1: intLit("3"), Expr2: intLit("3")}, boolLit("true")},
		{"Int not equal", &ast.Eq{Expr1: intLit("3"), Expr2: intLit("4")}, boolLit("false")},
		{"LE is numeric", &ast.LE{Expr1: intLit("10"), Expr2: intLit("9")}, boolLit("false")},
		{"LE mixed numeric", &ast.LE{Expr1: floatLit("1.5"), Expr2: intLit("2")}, boolLit("true")},
		{"Float equal after normalization", &ast.Eq{Expr1: floatLit("1.0"), Expr2: intLit("1")}, boolLit("true")},
		{"Bool equal", &ast.Eq{Expr1: boolLit("true"), Expr2: boolLit("true")}, boolLit("true")},
		{"Bool LE", &ast.LE{Expr1: boolLit("true"), Expr2: boolLit("false")}, boolLit("false")},
		{"String equal", &ast.Eq{Expr1: strLit("a"), Expr2: strLit("b")}, boolLit("false")},
		{"String LE", &ast.LE{Expr1: strLit("abc"), Expr2: strLit("abd")}, boolLit("true")},
		{"Same identifier", &ast.Eq{Expr1: ident("a"), Expr2: ident("a")}, boolLit("true")},
		{"Same identifier LE", &ast.LE{Expr1: ident("a"), Expr2: ident("a")}, boolLit("true")},
		{"Distinct identifiers stay", &ast.Eq{Expr1: ident("a"), Expr2: ident("b")},
			&ast.Eq{Expr1: ident("a"), Expr2: ident("b")}},
		{"Distinct identifiers LE stay", &ast.LE{Expr1: ident("a"), Expr2: ident("b")},
			&ast.LE{Expr1: ident("a"), Expr2: ident("b")}},
		{"Identifier against literal stays", &ast.Eq{Expr1: ident("a"), Expr2: intLit("1")},
			&ast.Eq{Expr1: ident("a"), Expr2: intLit("1")}},
		{"Identifier with literal text", &ast.Eq{Expr1: ident("1"), Expr2: intLit("1")}, boolLit("true")},
		{"Compound operand stays", &ast.Eq{Expr1: variable("x"), Expr2: intLit("1")},
			&ast.Eq{Expr1: variable("x"), Expr2: intLit("1")}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expectTree(t, mustTransform(t, test.input), test.expected)
		})
	}
}

// TestConditionalCollapse tests that literal conditions select one arm
func TestConditionalCollapse(t *testing.T) {
	thenArm := &ast.Add{NumberExpr1: intLit("1"), NumberExpr2: intLit("1")}
	elseArm := &ast.App{Fun: "print", ParamList: []ast.Node{&ast.Mul{NumberExpr1: intLit("2"), NumberExpr2: intLit("2")}}}

	foldedThen := mustTransform(t, thenArm)
	foldedElse := mustTransform(t, elseArm)

	expectTree(t, mustTransform(t, &ast.If{Condition: boolLit("true"), Then: thenArm, Else: elseArm}), foldedThen)
	expectTree(t, mustTransform(t, &ast.If{Condition: boolLit("false"), Then: thenArm, Else: elseArm}), foldedElse)

	// Condition decided after folding
	cond := &ast.LE{Expr1: intLit("2"), Expr2: intLit("1")}
	expectTree(t, mustTransform(t, &ast.If{Condition: cond, Then: thenArm, Else: elseArm}), foldedElse)

	// Unknown condition keeps the If with folded arms
	got := mustTransform(t, &ast.If{Condition: variable("c"), Then: thenArm, Else: elseArm})
	expectTree(t, got, &ast.If{Condition: variable("c"), Then: foldedThen, Else: foldedElse})
}

// TestConstantPropagation tests that let-bound literals reach later statements
func TestConstantPropagation(t *testing.T) {
	input := seq(
		let("x", intLit("5"), unit()),
		&ast.Add{NumberExpr1: variable("x"), NumberExpr2: intLit("3")},
	)

	got := mustTransform(t, input)
	expectTree(t, got, seq(let("x", intLit("5"), unit()), intLit("8")))

	// Through identifiers and into the let body
	input = let("y", &ast.Mul{NumberExpr1: intLit("2"), NumberExpr2: intLit("21")},
		&ast.Eq{Expr1: ident("y"), Expr2: intLit("42")})
	expectTree(t, mustTransform(t, input), let("y", intLit("42"), boolLit("true")))
}

// TestBindingKeepsLiteralKind tests that substitution restores the bound kind
func TestBindingKeepsLiteralKind(t *testing.T) {
	input := let("b", boolLit("true"),
		&ast.If{Condition: &ast.And{BoolExpr1: variable("b"), BoolExpr2: boolLit("true")}, Then: intLit("1"), Else: intLit("2")})
	expectTree(t, mustTransform(t, input), let("b", boolLit("true"), intLit("1")))

	input = let("f", floatLit("0.5"), &ast.Add{NumberExpr1: variable("f"), NumberExpr2: variable("f")})
	expectTree(t, mustTransform(t, input), let("f", floatLit("0.5"), floatLit("1")))

	input = let("s", strLit("hi"), &ast.Eq{Expr1: variable("s"), Expr2: strLit("hi")})
	expectTree(t, mustTransform(t, input), let("s", strLit("hi"), boolLit("true")))
}

// TestNonConstantBindingShadows tests that rebinding a name to an unknown
// value hides the earlier constant
func TestNonConstantBindingShadows(t *testing.T) {
	call := &ast.App{Fun: "read", ParamList: []ast.Node{}}
	input := seq(
		let("x", intLit("1"), unit()),
		seq(
			let("x", call, unit()),
			&ast.Add{NumberExpr1: variable("x"), NumberExpr2: intLit("1")},
		),
	)

	want := seq(
		let("x", intLit("1"), unit()),
		seq(
			let("x", call, unit()),
			&ast.Add{NumberExpr1: variable("x"), NumberExpr2: intLit("1")},
		),
	)
	expectTree(t, mustTransform(t, input), want)
}

// TestIdentValueIsNotBound tests that binding a free identifier leaves later
// uses of the name alone
func TestIdentValueIsNotBound(t *testing.T) {
	input := seq(let("x", ident("a"), unit()), variable("x"))
	expectTree(t, mustTransform(t, input), seq(let("x", ident("a"), unit()), variable("x")))

	// A bound identifier is substituted before the Let sees it.
	input = seq(
		let("a", intLit("2"), unit()),
		seq(let("x", ident("a"), unit()), variable("x")),
	)
	want := seq(
		let("a", intLit("2"), unit()),
		seq(let("x", intLit("2"), unit()), intLit("2")),
	)
	expectTree(t, mustTransform(t, input), want)
}

// TestBranchBindingsDoNotLeak tests that bindings made inside an undecided If
// are invisible after it
func TestBranchBindingsDoNotLeak(t *testing.T) {
	input := seq(
		&ast.If{Condition: variable("c"), Then: let("y", intLit("1"), unit()), Else: let("y", intLit("2"), unit())},
		variable("y"),
	)

	got := mustTransform(t, input)
	stmts, ok := got.(*ast.Stmts)
	if !ok {
		t.Fatalf("Expected Stmts, got %s", got)
	}
	expectTree(t, stmts.Expr2, variable("y"))

	_, env, err := Fold(input.(*ast.Stmts).Expr1, Empty())
	if err != nil {
		t.Fatalf("Fold failed: %v", err)
	}
	if env.Len() != 0 {
		t.Errorf("Expected empty environment after If, got %v", env.Names())
	}
}

// TestCollapsedBranchBindingsFlow tests that a collapsed If behaves like its arm
func TestCollapsedBranchBindingsFlow(t *testing.T) {
	input := seq(
		&ast.If{Condition: boolLit("true"), Then: let("y", intLit("1"), unit()), Else: unit()},
		variable("y"),
	)
	expectTree(t, mustTransform(t, input), seq(let("y", intLit("1"), unit()), intLit("1")))
}

// TestApplicationThreadsArguments tests left-to-right threading across arguments
func TestApplicationThreadsArguments(t *testing.T) {
	input := &ast.App{
		ObjectName: "io",
		Fun:        "print",
		ParamList: []ast.Node{
			let("x", intLit("2"), variable("x")),
			&ast.Mul{NumberExpr1: variable("x"), NumberExpr2: intLit("10")},
		},
	}
	want := &ast.App{
		ObjectName: "io",
		Fun:        "print",
		ParamList: []ast.Node{
			let("x", intLit("2"), intLit("2")),
			intLit("20"),
		},
	}
	expectTree(t, mustTransform(t, input), want)
}

// TestOpaqueNodesPassThrough tests that unknown node kinds are returned as is
func TestOpaqueNodesPassThrough(t *testing.T) {
	env := Empty().Bind("x", intLit("1"))

	opaque := []ast.Node{
		&ast.While{Condition: variable("x"), Body: &ast.Add{NumberExpr1: intLit("1"), NumberExpr2: intLit("1")}},
		&ast.Return{Value: variable("x")},
		&ast.Tuple{Elems: []ast.Node{variable("x")}},
		&ast.Array{Elems: []ast.Node{variable("x")}},
		&ast.Comment{Value: "x"},
		&ast.Break{},
		&ast.Unit{},
	}

	for _, node := range opaque {
		t.Run(node.Kind().String(), func(t *testing.T) {
			got, gotEnv, err := Fold(node, env)
			if err != nil {
				t.Fatalf("Fold failed: %v", err)
			}
			if got != node {
				t.Errorf("Expected the same node back, got %s", got)
			}
			if len(gotEnv.Names()) != 1 || gotEnv.Names()[0] != "x" {
				t.Errorf("Expected environment to be unchanged, got %v", gotEnv.Names())
			}
		})
	}
}

// TestIdempotence tests that folding a folded tree changes nothing
func TestIdempotence(t *testing.T) {
	inputs := []ast.Node{
		seq(let("x", intLit("5"), unit()), &ast.Add{NumberExpr1: variable("x"), NumberExpr2: variable("z")}),
		&ast.If{Condition: &ast.Eq{Expr1: ident("a"), Expr2: ident("b")}, Then: intLit("1"), Else: &ast.Neg{Expr: variable("n")}},
		&ast.App{Fun: "f", ParamList: []ast.Node{&ast.Or{BoolExpr1: boolLit("false"), BoolExpr2: variable("p")}}},
	}

	for _, input := range inputs {
		once := mustTransform(t, input)
		twice := mustTransform(t, once)
		expectTree(t, twice, once)
	}
}

// TestInputNotModified tests that folding builds a new tree
func TestInputNotModified(t *testing.T) {
	input := seq(
		let("x", &ast.Add{NumberExpr1: intLit("1"), NumberExpr2: intLit("2")}, unit()),
		&ast.If{Condition: &ast.LE{Expr1: variable("x"), Expr2: intLit("3")}, Then: variable("x"), Else: intLit("0")},
	)
	before := input.String()

	mustTransform(t, input)

	if after := input.String(); after != before {
		t.Errorf("Input tree was modified: before %s, after %s", before, after)
	}
}

// TestFoldErrors tests the fatal error conditions
func TestFoldErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  ast.Node
		target error
	}{
		{"Integer division by zero", &ast.Div{NumberExpr1: intLit("1"), NumberExpr2: intLit("0")}, errors.ErrDivisionByZero},
		{"Division by zero through binding", seq(let("z", intLit("0"), unit()),
			&ast.Div{NumberExpr1: intLit("4"), NumberExpr2: variable("z")}), errors.ErrDivisionByZero},
		{"Malformed integer", &ast.Add{NumberExpr1: intLit("12a"), NumberExpr2: intLit("1")}, errors.ErrMalformedLiteral},
		{"Malformed float", &ast.Mul{NumberExpr1: floatLit("x.5"), NumberExpr2: intLit("1")}, errors.ErrMalformedLiteral},
		{"Malformed boolean", &ast.And{BoolExpr1: boolLit("yes"), BoolExpr2: boolLit("true")}, errors.ErrMalformedLiteral},
		{"Boolean that looks like an integer", &ast.Not{BoolExpr: boolLit("1")}, errors.ErrMalformedLiteral},
		{"Malformed negation", &ast.Neg{Expr: intLit("--1")}, errors.ErrMalformedLiteral},
		{"Error inside argument", &ast.App{Fun: "f", ParamList: []ast.Node{
			&ast.Div{NumberExpr1: intLit("1"), NumberExpr2: intLit("0")},
		}}, errors.ErrDivisionByZero},
		{"Nil child", &ast.Neg{Expr: nil}, errors.ErrInvalidNode},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := Transform(test.input)
			if err == nil {
				t.Fatalf("Expected error, got tree %s", out)
			}
			if !errors.Is(err, test.target) {
				t.Errorf("Expected %v, got %v", test.target, err)
			}
		})
	}
}

// TestMaxDepth tests the recursion limit
func TestMaxDepth(t *testing.T) {
	var node ast.Node = intLit("1")
	for i := 0; i < 50; i++ {
		node = &ast.Neg{Expr: node}
	}

	if _, _, err := FoldWithOptions(node, Empty(), Options{MaxDepth: 10}, nil); !errors.Is(err, errors.ErrDepthExceeded) {
		t.Errorf("Expected depth error, got %v", err)
	}

	got, _, err := FoldWithOptions(node, Empty(), Options{MaxDepth: 100}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expectTree(t, got, intLit("1"))
}

// TestFoldStats tests the counters collected while folding
func TestFoldStats(t *testing.T) {
	input := seq(
		let("x", intLit("2"), unit()),
		&ast.If{
			Condition: &ast.Eq{Expr1: variable("x"), Expr2: intLit("2")},
			Then:      &ast.Add{NumberExpr1: variable("x"), NumberExpr2: intLit("1")},
			Else:      intLit("0"),
		},
	)

	stats := &OptimizationStats{}
	if _, _, err := FoldWithOptions(input, Empty(), Options{}, stats); err != nil {
		t.Fatalf("Fold failed: %v", err)
	}

	if stats.BindingsPropagated != 2 {
		t.Errorf("Expected 2 propagated bindings, got %d", stats.BindingsPropagated)
	}
	if stats.ConstantsFolded != 2 {
		t.Errorf("Expected 2 folded constants, got %d", stats.ConstantsFolded)
	}
	if stats.BranchesCollapsed != 1 {
		t.Errorf("Expected 1 collapsed branch, got %d", stats.BranchesCollapsed)
	}
	if stats.NodesVisited != ast.Count(input) {
		t.Errorf("Expected %d visited nodes, got %d", ast.Count(input), stats.NodesVisited)
	}
}
