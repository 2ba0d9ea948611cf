// Package ast - JSON encoding of the aleph tree.
// Each node is encoded as an object tagged by "kind" whose remaining fields
// carry the node payload, e.g. {"kind":"Add","number_expr1":{...},"number_expr2":{...}}.
package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aleph-lang/constant-folding/internal/errors"
)

type wire = map[string]interface{}

// Marshal encodes the tree rooted at n as JSON
func Marshal(n Node) ([]byte, error) {
	w, err := toWire(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// MarshalIndent is like Marshal but indents the output
func MarshalIndent(n Node, prefix, indent string) ([]byte, error) {
	w, err := toWire(n)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(w, prefix, indent)
}

func toWireList(nodes []Node) ([]interface{}, error) {
	out := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		w, err := toWire(n)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func toWire(n Node) (wire, error) {
	if n == nil {
		return nil, errors.InvalidNode("nil node in tree")
	}

	w := wire{"kind": n.Kind().String()}
	children := map[string]Node{}

	switch n := n.(type) {
	case *Int, *Float, *Bool, *String, *Ident, *Comment:
		w["value"] = n.StringValue()
	case *Var:
		w["var"] = n.Name
		w["is_pointer"] = n.IsPointer
	case *Let:
		w["var"] = n.Var
		w["is_pointer"] = n.IsPointer
		children["value"], children["expr"] = n.Value, n.Expr
	case *Add:
		children["number_expr1"], children["number_expr2"] = n.NumberExpr1, n.NumberExpr2
	case *Sub:
		children["number_expr1"], children["number_expr2"] = n.NumberExpr1, n.NumberExpr2
	case *Mul:
		children["number_expr1"], children["number_expr2"] = n.NumberExpr1, n.NumberExpr2
	case *Div:
		children["number_expr1"], children["number_expr2"] = n.NumberExpr1, n.NumberExpr2
	case *Neg:
		children["expr"] = n.Expr
	case *And:
		children["bool_expr1"], children["bool_expr2"] = n.BoolExpr1, n.BoolExpr2
	case *Or:
		children["bool_expr1"], children["bool_expr2"] = n.BoolExpr1, n.BoolExpr2
	case *Not:
		children["bool_expr"] = n.BoolExpr
	case *Eq:
		children["expr1"], children["expr2"] = n.Expr1, n.Expr2
	case *LE:
		children["expr1"], children["expr2"] = n.Expr1, n.Expr2
	case *If:
		children["condition"], children["then"], children["els"] = n.Condition, n.Then, n.Else
	case *Stmts:
		children["expr1"], children["expr2"] = n.Expr1, n.Expr2
	case *App:
		w["object_name"] = n.ObjectName
		w["fun"] = n.Fun
		params, err := toWireList(n.ParamList)
		if err != nil {
			return nil, err
		}
		w["param_list"] = params
	case *Return:
		children["value"] = n.Value
	case *While:
		children["condition"], children["body"] = n.Condition, n.Body
	case *Tuple:
		elems, err := toWireList(n.Elems)
		if err != nil {
			return nil, err
		}
		w["elems"] = elems
	case *Array:
		elems, err := toWireList(n.Elems)
		if err != nil {
			return nil, err
		}
		w["elems"] = elems
	case *Unit, *Break:
	}

	for field, child := range children {
		cw, err := toWire(child)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", n.Kind(), field, err)
		}
		w[field] = cw
	}
	return w, nil
}

// Unmarshal decodes a JSON encoded tree. The input is read as a single token
// stream, so decoding cost is linear in its size whatever the tree depth.
func Unmarshal(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	n, err := readNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.InvalidNode("unexpected data after tree")
	}
	return n, nil
}

// Fields holding a child node or a list of nodes. Anything else unknown is skipped.
var (
	nodeFields = map[string]bool{
		"value": true, "expr": true, "number_expr1": true, "number_expr2": true,
		"bool_expr1": true, "bool_expr2": true, "bool_expr": true, "expr1": true, "expr2": true,
		"condition": true, "then": true, "els": true, "body": true,
	}
	listFields = map[string]bool{"param_list": true, "elems": true}
)

func readNode(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.InvalidNode(err.Error())
	}
	switch tok {
	case json.Delim('{'):
		return readObject(dec)
	case nil:
		return nil, errors.InvalidNode("null node")
	}
	return nil, errors.InvalidNode(fmt.Sprintf("expected node object, found %v", tok))
}

// readObject reads the members of a node whose opening brace was consumed.
// Children are decoded as they are met; the node is built once "kind" is known.
func readObject(dec *json.Decoder) (Node, error) {
	d := &decoder{
		scalars: map[string]interface{}{},
		nodes:   map[string]Node{},
		lists:   map[string][]Node{},
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.InvalidNode(err.Error())
		}
		key, _ := tok.(string)

		tok, err = dec.Token()
		if err != nil {
			return nil, errors.InvalidNode(err.Error())
		}
		switch {
		case tok == json.Delim('{') && nodeFields[key]:
			n, err := readObject(dec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			d.nodes[key] = n
		case tok == json.Delim('[') && listFields[key]:
			items, err := readList(dec)
			if err != nil {
				return nil, fmt.Errorf("%s%w", key, err)
			}
			d.lists[key] = items
		case tok == json.Delim('{') || tok == json.Delim('['):
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		default:
			d.scalars[key] = tok
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.InvalidNode(err.Error())
	}

	return d.build()
}

func readList(dec *json.Decoder) ([]Node, error) {
	out := []Node{}
	for i := 0; dec.More(); i++ {
		n, err := readNode(dec)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, n)
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.InvalidNode(err.Error())
	}
	return out, nil
}

// skipValue consumes the rest of an object or array whose opening delimiter was read
func skipValue(dec *json.Decoder) error {
	for depth := 1; depth > 0; {
		tok, err := dec.Token()
		if err != nil {
			return errors.InvalidNode(err.Error())
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
	return nil
}

// decoder holds the members of one encoded node, keeping the first error
type decoder struct {
	kind    Kind
	scalars map[string]interface{}
	nodes   map[string]Node
	lists   map[string][]Node
	err     error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) str(name string) string {
	v, ok := d.scalars[name]
	if !ok {
		d.fail(errors.InvalidNode(fmt.Sprintf("%s: missing field %q", d.kind, name)))
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(errors.InvalidNode(fmt.Sprintf("%s.%s: expected string, found %v", d.kind, name, v)))
	}
	return s
}

func (d *decoder) optStr(name string) string {
	if _, ok := d.scalars[name]; !ok {
		return ""
	}
	return d.str(name)
}

func (d *decoder) flag(name string) bool {
	v, ok := d.scalars[name]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		d.fail(errors.InvalidNode(fmt.Sprintf("%s.%s: expected boolean, found %v", d.kind, name, v)))
	}
	return b
}

func (d *decoder) node(name string) Node {
	n, ok := d.nodes[name]
	if !ok {
		d.fail(errors.InvalidNode(fmt.Sprintf("%s: missing node field %q", d.kind, name)))
	}
	return n
}

func (d *decoder) list(name string) []Node {
	if items, ok := d.lists[name]; ok {
		return items
	}
	if _, ok := d.scalars[name]; ok {
		d.fail(errors.InvalidNode(fmt.Sprintf("%s.%s: expected list", d.kind, name)))
	}
	return []Node{}
}

func (d *decoder) build() (Node, error) {
	tag, ok := d.scalars["kind"].(string)
	if !ok {
		return nil, errors.InvalidNode("missing or malformed \"kind\" tag")
	}
	kind, ok := KindFromString(tag)
	if !ok {
		return nil, errors.InvalidNode(fmt.Sprintf("unknown kind %q", tag))
	}
	d.kind = kind

	var n Node
	switch kind {
	case KindInt, KindFloat, KindBool, KindString:
		n = NewLiteral(kind, d.str("value"))
	case KindIdent:
		n = &Ident{Value: d.str("value")}
	case KindComment:
		n = &Comment{Value: d.str("value")}
	case KindVar:
		n = &Var{Name: d.str("var"), IsPointer: d.flag("is_pointer")}
	case KindLet:
		n = &Let{Var: d.str("var"), IsPointer: d.flag("is_pointer"), Value: d.node("value"), Expr: d.node("expr")}
	case KindAdd:
		n = &Add{NumberExpr1: d.node("number_expr1"), NumberExpr2: d.node("number_expr2")}
	case KindSub:
		n = &Sub{NumberExpr1: d.node("number_expr1"), NumberExpr2: d.node("number_expr2")}
	case KindMul:
		n = &Mul{NumberExpr1: d.node("number_expr1"), NumberExpr2: d.node("number_expr2")}
	case KindDiv:
		n = &Div{NumberExpr1: d.node("number_expr1"), NumberExpr2: d.node("number_expr2")}
	case KindNeg:
		n = &Neg{Expr: d.node("expr")}
	case KindAnd:
		n = &And{BoolExpr1: d.node("bool_expr1"), BoolExpr2: d.node("bool_expr2")}
	case KindOr:
		n = &Or{BoolExpr1: d.node("bool_expr1"), BoolExpr2: d.node("bool_expr2")}
	case KindNot:
		n = &Not{BoolExpr: d.node("bool_expr")}
	case KindEq:
		n = &Eq{Expr1: d.node("expr1"), Expr2: d.node("expr2")}
	case KindLE:
		n = &LE{Expr1: d.node("expr1"), Expr2: d.node("expr2")}
	case KindIf:
		n = &If{Condition: d.node("condition"), Then: d.node("then"), Else: d.node("els")}
	case KindStmts:
		n = &Stmts{Expr1: d.node("expr1"), Expr2: d.node("expr2")}
	case KindApp:
		n = &App{ObjectName: d.optStr("object_name"), Fun: d.str("fun"), ParamList: d.list("param_list")}
	case KindUnit:
		n = &Unit{}
	case KindBreak:
		n = &Break{}
	case KindReturn:
		n = &Return{Value: d.node("value")}
	case KindWhile:
		n = &While{Condition: d.node("condition"), Body: d.node("body")}
	case KindTuple:
		n = &Tuple{Elems: d.list("elems")}
	case KindArray:
		n = &Array{Elems: d.list("elems")}
	}

	if d.err != nil {
		return nil, d.err
	}
	return n, nil
}
