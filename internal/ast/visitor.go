// Package ast - traversal helpers for the aleph tree.
// This file provides child enumeration and a pre-order walker used by analysis
// passes, statistics collection and tests.
package ast

// Visitor is invoked for each node encountered by Walk.
// If Visit returns nil, the children of the node are not visited.
type Visitor interface {
	Visit(node Node) Visitor
}

// Children returns the direct child nodes of n in evaluation order.
// Leaves return nil.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Let:
		return []Node{n.Value, n.Expr}
	case *Add:
		return []Node{n.NumberExpr1, n.NumberExpr2}
	case *Sub:
		return []Node{n.NumberExpr1, n.NumberExpr2}
	case *Mul:
		return []Node{n.NumberExpr1, n.NumberExpr2}
	case *Div:
		return []Node{n.NumberExpr1, n.NumberExpr2}
	case *Neg:
		return []Node{n.Expr}
	case *And:
		return []Node{n.BoolExpr1, n.BoolExpr2}
	case *Or:
		return []Node{n.BoolExpr1, n.BoolExpr2}
	case *Not:
		return []Node{n.BoolExpr}
	case *Eq:
		return []Node{n.Expr1, n.Expr2}
	case *LE:
		return []Node{n.Expr1, n.Expr2}
	case *If:
		return []Node{n.Condition, n.Then, n.Else}
	case *Stmts:
		return []Node{n.Expr1, n.Expr2}
	case *App:
		return n.ParamList
	case *Return:
		return []Node{n.Value}
	case *While:
		return []Node{n.Condition, n.Body}
	case *Tuple:
		return n.Elems
	case *Array:
		return n.Elems
	default:
		return nil
	}
}

// Walk traverses the tree rooted at node in pre-order
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses the tree calling f for every node; returning false prunes
// the subtree below the current node
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Count returns the number of nodes in the tree
func Count(node Node) int {
	n := 0
	Inspect(node, func(Node) bool {
		n++
		return true
	})
	return n
}

// Depth returns the height of the tree; a single leaf has depth 1
func Depth(node Node) int {
	if node == nil {
		return 0
	}
	deepest := 0
	for _, child := range Children(node) {
		if d := Depth(child); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
