package fold

import (
	"sort"

	"github.com/aleph-lang/constant-folding/internal/ast"
)

// Binding is the literal value a name is known to hold
type Binding struct {
	Kind ast.Kind
	Text string
}

// Node materializes the binding as a fresh literal node
func (b Binding) Node() ast.Node { return ast.NewLiteral(b.Kind, b.Text) }

// Env is a persistent mapping from names to the literal values they are
// statically known to hold. Bind and Unbind return new environments and never
// modify the receiver, so an Env can be handed to sibling subtrees freely.
// The zero value is the empty environment.
type Env struct {
	head *entry
}

type entry struct {
	name    string
	binding Binding
	removed bool
	next    *entry
}

// Empty returns the empty environment
func Empty() Env { return Env{} }

// Lookup returns the binding for name, if any. The most recent Bind or Unbind
// of a name wins.
func (e Env) Lookup(name string) (Binding, bool) {
	for it := e.head; it != nil; it = it.next {
		if it.name == name {
			return it.binding, !it.removed
		}
	}
	return Binding{}, false
}

// Bind returns e extended with name bound to lit. Non-literal nodes are never
// bound; in that case the name is shadowed instead, since its previous value
// no longer holds.
func (e Env) Bind(name string, lit ast.Node) Env {
	if !ast.IsLiteral(lit) {
		return e.Unbind(name)
	}
	b := Binding{Kind: lit.Kind(), Text: lit.StringValue()}
	return Env{head: &entry{name: name, binding: b, next: e.head}}
}

// Unbind returns e without a binding for name
func (e Env) Unbind(name string) Env {
	if _, ok := e.Lookup(name); !ok {
		return e
	}
	return Env{head: &entry{name: name, removed: true, next: e.head}}
}

// Names returns the bound names in sorted order
func (e Env) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for it := e.head; it != nil; it = it.next {
		if seen[it.name] {
			continue
		}
		seen[it.name] = true
		if !it.removed {
			names = append(names, it.name)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bound names
func (e Env) Len() int { return len(e.Names()) }
