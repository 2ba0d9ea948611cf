// Package fold implements constant folding and constant propagation over the
// aleph tree.
//
// The pass descends the tree once, threading an Env of names known to hold
// literal values. Operators whose operands fold to literals are evaluated,
// variables bound to literals are substituted, and conditionals whose
// condition is a boolean literal collapse to the taken branch. The input tree
// is never modified.
package fold

import (
	"fmt"

	"github.com/aleph-lang/constant-folding/internal/ast"
	"github.com/aleph-lang/constant-folding/internal/errors"
)

// Options tunes a single folding run
type Options struct {
	// MaxDepth aborts the fold with a DEPTH_EXCEEDED error once recursion goes
	// deeper than this many nodes. Zero means unlimited.
	MaxDepth int
}

// Transform folds the tree rooted at node starting from an empty environment
func Transform(node ast.Node) (ast.Node, error) {
	out, _, err := Fold(node, Empty())
	return out, err
}

// Fold folds node under env and returns the rewritten node together with the
// environment visible to whatever is sequenced after it
func Fold(node ast.Node, env Env) (ast.Node, Env, error) {
	return FoldWithOptions(node, env, Options{}, nil)
}

// FoldWithOptions is Fold with explicit options. When stats is non-nil the
// folding counters are accumulated into it.
func FoldWithOptions(node ast.Node, env Env, opts Options, stats *OptimizationStats) (ast.Node, Env, error) {
	if stats == nil {
		stats = &OptimizationStats{}
	}
	f := &folder{opts: opts, stats: stats}
	return f.fold(node, env)
}

type folder struct {
	opts  Options
	stats *OptimizationStats
	depth int
}

func (f *folder) transformed() { f.stats.NodesTransformed++ }

func (f *folder) constantFolded() {
	f.stats.NodesTransformed++
	f.stats.ConstantsFolded++
}

func (f *folder) fold(node ast.Node, env Env) (ast.Node, Env, error) {
	if node == nil {
		return nil, env, errors.InvalidNode("nil child")
	}

	f.depth++
	defer func() { f.depth-- }()
	if f.opts.MaxDepth > 0 && f.depth > f.opts.MaxDepth {
		return nil, env, errors.DepthExceeded(f.depth, f.opts.MaxDepth)
	}
	f.stats.NodesVisited++

	switch n := node.(type) {
	case *ast.Ident:
		return f.resolve(node, n.Value, env), env, nil
	case *ast.Var:
		return f.resolve(node, n.Name, env), env, nil
	case *ast.Let:
		return f.foldLet(n, env)
	case *ast.Add:
		return f.foldArith(opAdd, n.NumberExpr1, n.NumberExpr2, env, func(l, r ast.Node) ast.Node {
			return &ast.Add{NumberExpr1: l, NumberExpr2: r}
		})
	case *ast.Sub:
		return f.foldArith(opSub, n.NumberExpr1, n.NumberExpr2, env, func(l, r ast.Node) ast.Node {
			return &ast.Sub{NumberExpr1: l, NumberExpr2: r}
		})
	case *ast.Mul:
		return f.foldArith(opMul, n.NumberExpr1, n.NumberExpr2, env, func(l, r ast.Node) ast.Node {
			return &ast.Mul{NumberExpr1: l, NumberExpr2: r}
		})
	case *ast.Div:
		return f.foldArith(opDiv, n.NumberExpr1, n.NumberExpr2, env, func(l, r ast.Node) ast.Node {
			return &ast.Div{NumberExpr1: l, NumberExpr2: r}
		})
	case *ast.Neg:
		return f.foldUnary(n.Expr, env, evalNeg, func(x ast.Node) ast.Node { return &ast.Neg{Expr: x} })
	case *ast.Not:
		return f.foldUnary(n.BoolExpr, env, evalNot, func(x ast.Node) ast.Node { return &ast.Not{BoolExpr: x} })
	case *ast.And:
		return f.foldPair(n.BoolExpr1, n.BoolExpr2, env,
			func(l, r ast.Node) (ast.Node, bool, error) { return evalLogic(true, l, r) },
			func(l, r ast.Node) ast.Node { return &ast.And{BoolExpr1: l, BoolExpr2: r} })
	case *ast.Or:
		return f.foldPair(n.BoolExpr1, n.BoolExpr2, env,
			func(l, r ast.Node) (ast.Node, bool, error) { return evalLogic(false, l, r) },
			func(l, r ast.Node) ast.Node { return &ast.Or{BoolExpr1: l, BoolExpr2: r} })
	case *ast.Eq:
		return f.foldPair(n.Expr1, n.Expr2, env,
			func(l, r ast.Node) (ast.Node, bool, error) { return evalCompare(opEq, l, r) },
			func(l, r ast.Node) ast.Node { return &ast.Eq{Expr1: l, Expr2: r} })
	case *ast.LE:
		return f.foldPair(n.Expr1, n.Expr2, env,
			func(l, r ast.Node) (ast.Node, bool, error) { return evalCompare(opLE, l, r) },
			func(l, r ast.Node) ast.Node { return &ast.LE{Expr1: l, Expr2: r} })
	case *ast.If:
		return f.foldIf(n, env)
	case *ast.Stmts:
		first, env, err := f.fold(n.Expr1, env)
		if err != nil {
			return nil, env, err
		}
		second, env, err := f.fold(n.Expr2, env)
		if err != nil {
			return nil, env, err
		}
		return &ast.Stmts{Expr1: first, Expr2: second}, env, nil
	case *ast.App:
		params, env, err := f.foldList(n.ParamList, env)
		if err != nil {
			return nil, env, err
		}
		return &ast.App{ObjectName: n.ObjectName, Fun: n.Fun, ParamList: params}, env, nil
	default:
		// Literals and opaque nodes.
		return node, env, nil
	}
}

// resolve substitutes a bound name by its literal value
func (f *folder) resolve(node ast.Node, name string, env Env) ast.Node {
	if b, ok := env.Lookup(name); ok {
		f.transformed()
		f.stats.BindingsPropagated++
		return b.Node()
	}
	return node
}

func (f *folder) foldLet(n *ast.Let, env Env) (ast.Node, Env, error) {
	value, env, err := f.fold(n.Value, env)
	if err != nil {
		return nil, env, fmt.Errorf("let %s: %w", n.Var, err)
	}

	// Only literals are bound. Any other value, an unresolved Ident
	// included, shadows the name.
	bodyEnv := env.Bind(n.Var, value)

	body, env, err := f.fold(n.Expr, bodyEnv)
	if err != nil {
		return nil, env, err
	}
	return &ast.Let{Var: n.Var, IsPointer: n.IsPointer, Value: value, Expr: body}, env, nil
}

func (f *folder) foldArith(op arithOp, lhs, rhs ast.Node, env Env, rebuild func(l, r ast.Node) ast.Node) (ast.Node, Env, error) {
	return f.foldPair(lhs, rhs, env,
		func(l, r ast.Node) (ast.Node, bool, error) { return evalArith(op, l, r) },
		rebuild)
}

// foldPair folds two operands left to right and evaluates them when possible
func (f *folder) foldPair(lhs, rhs ast.Node, env Env,
	eval func(l, r ast.Node) (ast.Node, bool, error),
	rebuild func(l, r ast.Node) ast.Node,
) (ast.Node, Env, error) {
	l, env, err := f.fold(lhs, env)
	if err != nil {
		return nil, env, err
	}
	r, env, err := f.fold(rhs, env)
	if err != nil {
		return nil, env, err
	}

	lit, ok, err := eval(l, r)
	if err != nil {
		return nil, env, err
	}
	if ok {
		f.constantFolded()
		return lit, env, nil
	}
	return rebuild(l, r), env, nil
}

func (f *folder) foldUnary(operand ast.Node, env Env,
	eval func(ast.Node) (ast.Node, bool, error),
	rebuild func(ast.Node) ast.Node,
) (ast.Node, Env, error) {
	x, env, err := f.fold(operand, env)
	if err != nil {
		return nil, env, err
	}

	lit, ok, err := eval(x)
	if err != nil {
		return nil, env, err
	}
	if ok {
		f.constantFolded()
		return lit, env, nil
	}
	return rebuild(x), env, nil
}

// foldIf folds both arms under the environment left by the condition.
// A collapsed conditional is replaced by its taken arm, so that arm's
// bindings flow on; otherwise no arm-local binding escapes the If.
func (f *folder) foldIf(n *ast.If, env Env) (ast.Node, Env, error) {
	cond, condEnv, err := f.fold(n.Condition, env)
	if err != nil {
		return nil, env, err
	}
	then, thenEnv, err := f.fold(n.Then, condEnv)
	if err != nil {
		return nil, env, err
	}
	els, elsEnv, err := f.fold(n.Else, condEnv)
	if err != nil {
		return nil, env, err
	}

	if ast.IsLiteral(cond) {
		switch cond.StringValue() {
		case "true":
			f.transformed()
			f.stats.BranchesCollapsed++
			return then, thenEnv, nil
		case "false":
			f.transformed()
			f.stats.BranchesCollapsed++
			return els, elsEnv, nil
		}
	}
	return &ast.If{Condition: cond, Then: then, Else: els}, condEnv, nil
}

// foldList folds nodes left to right, threading the environment
func (f *folder) foldList(nodes []ast.Node, env Env) ([]ast.Node, Env, error) {
	out := make([]ast.Node, 0, len(nodes))
	for i, n := range nodes {
		folded, next, err := f.fold(n, env)
		if err != nil {
			return nil, env, fmt.Errorf("argument %d: %w", i, err)
		}
		out = append(out, folded)
		env = next
	}
	return out, env, nil
}
