// Package ast defines the aleph tree, the expression-oriented syntax tree that the
// constant folding pass consumes and produces.
//
// The node vocabulary is closed: every node implements Node through an unexported
// marker method, so type switches over the concrete node types are exhaustive.
// Nodes are treated as immutable values; passes build new nodes instead of
// mutating children in place.
package ast

import (
	"fmt"
	"strings"
)

// Node is the base interface for all aleph tree nodes
type Node interface {
	// Kind returns the tag of the node
	Kind() Kind
	// String returns a human-readable representation of the node
	String() string
	// StringValue returns the canonical text of the node: the stored text for
	// literals, the name for identifiers and variables, String() otherwise
	StringValue() string
	alephNode()
}

// Kind is the tag of a node variant
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindIdent
	KindVar
	KindLet
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindNeg
	KindAnd
	KindOr
	KindNot
	KindEq
	KindLE
	KindIf
	KindStmts
	KindApp
	KindUnit
	KindBreak
	KindComment
	KindReturn
	KindWhile
	KindTuple
	KindArray
)

var kindNames = [...]string{
	KindInt:     "Int",
	KindFloat:   "Float",
	KindBool:    "Bool",
	KindString:  "String",
	KindIdent:   "Ident",
	KindVar:     "Var",
	KindLet:     "Let",
	KindAdd:     "Add",
	KindSub:     "Sub",
	KindMul:     "Mul",
	KindDiv:     "Div",
	KindNeg:     "Neg",
	KindAnd:     "And",
	KindOr:      "Or",
	KindNot:     "Not",
	KindEq:      "Eq",
	KindLE:      "LE",
	KindIf:      "If",
	KindStmts:   "Stmts",
	KindApp:     "App",
	KindUnit:    "Unit",
	KindBreak:   "Break",
	KindComment: "Comment",
	KindReturn:  "Return",
	KindWhile:   "While",
	KindTuple:   "Tuple",
	KindArray:   "Array",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindFromString maps a tag name back to its Kind
func KindFromString(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// IsLiteral reports whether the kind is one of the four literal kinds
func (k Kind) IsLiteral() bool {
	return k == KindInt || k == KindFloat || k == KindBool || k == KindString
}

// ===== Literals =====

// Int is an integer literal stored as decimal text
type Int struct{ Value string }

// Float is a floating point literal stored as decimal text
type Float struct{ Value string }

// Bool is a boolean literal, "true" or "false"
type Bool struct{ Value string }

// String is a string literal
type String struct{ Value string }

func (n *Int) Kind() Kind             { return KindInt }
func (n *Int) String() string         { return fmt.Sprintf("Int(%s)", n.Value) }
func (n *Int) StringValue() string    { return n.Value }
func (n *Int) alephNode()             {}
func (n *Float) Kind() Kind           { return KindFloat }
func (n *Float) String() string       { return fmt.Sprintf("Float(%s)", n.Value) }
func (n *Float) StringValue() string  { return n.Value }
func (n *Float) alephNode()           {}
func (n *Bool) Kind() Kind            { return KindBool }
func (n *Bool) String() string        { return fmt.Sprintf("Bool(%s)", n.Value) }
func (n *Bool) StringValue() string   { return n.Value }
func (n *Bool) alephNode()            {}
func (n *String) Kind() Kind          { return KindString }
func (n *String) String() string      { return fmt.Sprintf("String(%q)", n.Value) }
func (n *String) StringValue() string { return n.Value }
func (n *String) alephNode()          {}

// NewLiteral builds a literal node of the given kind. It returns nil when kind
// is not a literal kind.
func NewLiteral(kind Kind, text string) Node {
	switch kind {
	case KindInt:
		return &Int{Value: text}
	case KindFloat:
		return &Float{Value: text}
	case KindBool:
		return &Bool{Value: text}
	case KindString:
		return &String{Value: text}
	default:
		return nil
	}
}

// ===== Names =====

// Ident is a symbolic reference resolved by textual substitution
type Ident struct{ Value string }

// Var is a variable read
type Var struct {
	Name      string
	IsPointer bool
}

func (n *Ident) Kind() Kind          { return KindIdent }
func (n *Ident) String() string      { return fmt.Sprintf("Ident(%s)", n.Value) }
func (n *Ident) StringValue() string { return n.Value }
func (n *Ident) alephNode()          {}

func (n *Var) Kind() Kind { return KindVar }
func (n *Var) String() string {
	if n.IsPointer {
		return fmt.Sprintf("Var(*%s)", n.Name)
	}
	return fmt.Sprintf("Var(%s)", n.Name)
}
func (n *Var) StringValue() string { return n.Name }
func (n *Var) alephNode()          {}

// Let binds Var to Value within Expr
type Let struct {
	Var       string
	IsPointer bool
	Value     Node
	Expr      Node
}

func (n *Let) Kind() Kind { return KindLet }
func (n *Let) String() string {
	name := n.Var
	if n.IsPointer {
		name = "*" + name
	}
	return fmt.Sprintf("Let(%s = %s in %s)", name, n.Value.String(), n.Expr.String())
}
func (n *Let) StringValue() string { return n.String() }
func (n *Let) alephNode()          {}

// ===== Operators =====

// Add, Sub, Mul and Div are the arithmetic operators
type (
	Add struct{ NumberExpr1, NumberExpr2 Node }
	Sub struct{ NumberExpr1, NumberExpr2 Node }
	Mul struct{ NumberExpr1, NumberExpr2 Node }
	Div struct{ NumberExpr1, NumberExpr2 Node }
)

// Neg is arithmetic negation
type Neg struct{ Expr Node }

// And and Or are the boolean connectives
type (
	And struct{ BoolExpr1, BoolExpr2 Node }
	Or  struct{ BoolExpr1, BoolExpr2 Node }
)

// Not is boolean negation
type Not struct{ BoolExpr Node }

// Eq and LE are the comparison operators
type (
	Eq struct{ Expr1, Expr2 Node }
	LE struct{ Expr1, Expr2 Node }
)

func binary(name string, l, r Node) string {
	return fmt.Sprintf("%s(%s, %s)", name, l.String(), r.String())
}

func (n *Add) Kind() Kind          { return KindAdd }
func (n *Add) String() string      { return binary("Add", n.NumberExpr1, n.NumberExpr2) }
func (n *Add) StringValue() string { return n.String() }
func (n *Add) alephNode()          {}
func (n *Sub) Kind() Kind          { return KindSub }
func (n *Sub) String() string      { return binary("Sub", n.NumberExpr1, n.NumberExpr2) }
func (n *Sub) StringValue() string { return n.String() }
func (n *Sub) alephNode()          {}
func (n *Mul) Kind() Kind          { return KindMul }
func (n *Mul) String() string      { return binary("Mul", n.NumberExpr1, n.NumberExpr2) }
func (n *Mul) StringValue() string { return n.String() }
func (n *Mul) alephNode()          {}
func (n *Div) Kind() Kind          { return KindDiv }
func (n *Div) String() string      { return binary("Div", n.NumberExpr1, n.NumberExpr2) }
func (n *Div) StringValue() string { return n.String() }
func (n *Div) alephNode()          {}
func (n *Neg) Kind() Kind          { return KindNeg }
func (n *Neg) String() string      { return fmt.Sprintf("Neg(%s)", n.Expr.String()) }
func (n *Neg) StringValue() string { return n.String() }
func (n *Neg) alephNode()          {}
func (n *And) Kind() Kind          { return KindAnd }
func (n *And) String() string      { return binary("And", n.BoolExpr1, n.BoolExpr2) }
func (n *And) StringValue() string { return n.String() }
func (n *And) alephNode()          {}
func (n *Or) Kind() Kind           { return KindOr }
func (n *Or) String() string       { return binary("Or", n.BoolExpr1, n.BoolExpr2) }
func (n *Or) StringValue() string  { return n.String() }
func (n *Or) alephNode()           {}
func (n *Not) Kind() Kind          { return KindNot }
func (n *Not) String() string      { return fmt.Sprintf("Not(%s)", n.BoolExpr.String()) }
func (n *Not) StringValue() string { return n.String() }
func (n *Not) alephNode()          {}
func (n *Eq) Kind() Kind           { return KindEq }
func (n *Eq) String() string       { return binary("Eq", n.Expr1, n.Expr2) }
func (n *Eq) StringValue() string  { return n.String() }
func (n *Eq) alephNode()           {}
func (n *LE) Kind() Kind           { return KindLE }
func (n *LE) String() string       { return binary("LE", n.Expr1, n.Expr2) }
func (n *LE) StringValue() string  { return n.String() }
func (n *LE) alephNode()           {}

// ===== Control flow =====

// If is a two-armed conditional expression
type If struct {
	Condition Node
	Then      Node
	Else      Node
}

func (n *If) Kind() Kind { return KindIf }
func (n *If) String() string {
	return fmt.Sprintf("If(%s, %s, %s)", n.Condition.String(), n.Then.String(), n.Else.String())
}
func (n *If) StringValue() string { return n.String() }
func (n *If) alephNode()          {}

// Stmts sequences two expressions
type Stmts struct{ Expr1, Expr2 Node }

func (n *Stmts) Kind() Kind          { return KindStmts }
func (n *Stmts) String() string      { return binary("Stmts", n.Expr1, n.Expr2) }
func (n *Stmts) StringValue() string { return n.String() }
func (n *Stmts) alephNode()          {}

// App is a call of Fun, optionally on ObjectName, with ordered arguments
type App struct {
	ObjectName string
	Fun        string
	ParamList  []Node
}

func (n *App) Kind() Kind { return KindApp }
func (n *App) String() string {
	callee := n.Fun
	if n.ObjectName != "" {
		callee = n.ObjectName + "." + n.Fun
	}
	return fmt.Sprintf("App(%s, [%s])", callee, joinNodes(n.ParamList))
}
func (n *App) StringValue() string { return n.String() }
func (n *App) alephNode()          {}

// ===== Opaque nodes =====
// The folding pass never looks inside the nodes below.

// Unit is the empty value
type Unit struct{}

// Break leaves the enclosing loop
type Break struct{}

// Comment carries source commentary through the pipeline
type Comment struct{ Value string }

// Return returns Value from the enclosing function
type Return struct{ Value Node }

// While loops over Body while Condition holds
type While struct{ Condition, Body Node }

// Tuple is a fixed-size heterogeneous aggregate
type Tuple struct{ Elems []Node }

// Array is a homogeneous aggregate
type Array struct{ Elems []Node }

func (n *Unit) Kind() Kind             { return KindUnit }
func (n *Unit) String() string         { return "Unit" }
func (n *Unit) StringValue() string    { return "()" }
func (n *Unit) alephNode()             {}
func (n *Break) Kind() Kind            { return KindBreak }
func (n *Break) String() string        { return "Break" }
func (n *Break) StringValue() string   { return n.String() }
func (n *Break) alephNode()            {}
func (n *Comment) Kind() Kind          { return KindComment }
func (n *Comment) String() string      { return fmt.Sprintf("Comment(%q)", n.Value) }
func (n *Comment) StringValue() string { return n.Value }
func (n *Comment) alephNode()          {}
func (n *Return) Kind() Kind           { return KindReturn }
func (n *Return) String() string       { return fmt.Sprintf("Return(%s)", n.Value.String()) }
func (n *Return) StringValue() string  { return n.String() }
func (n *Return) alephNode()           {}
func (n *While) Kind() Kind            { return KindWhile }
func (n *While) String() string        { return binary("While", n.Condition, n.Body) }
func (n *While) StringValue() string   { return n.String() }
func (n *While) alephNode()            {}
func (n *Tuple) Kind() Kind            { return KindTuple }
func (n *Tuple) String() string        { return fmt.Sprintf("Tuple(%s)", joinNodes(n.Elems)) }
func (n *Tuple) StringValue() string   { return n.String() }
func (n *Tuple) alephNode()            {}
func (n *Array) Kind() Kind            { return KindArray }
func (n *Array) String() string        { return fmt.Sprintf("Array(%s)", joinNodes(n.Elems)) }
func (n *Array) StringValue() string   { return n.String() }
func (n *Array) alephNode()            {}

func joinNodes(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, ", ")
}

// IsSimple reports whether n is a literal or an identifier
func IsSimple(n Node) bool {
	switch n.(type) {
	case *Int, *Float, *Bool, *String, *Ident:
		return true
	default:
		return false
	}
}

// IsLiteral reports whether n is one of the four literal nodes
func IsLiteral(n Node) bool {
	return n != nil && n.Kind().IsLiteral()
}
