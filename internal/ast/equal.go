package ast

// Equal reports whether a and b are structurally identical trees
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case *Int, *Float, *Bool, *String, *Ident, *Comment:
		return a.StringValue() == b.StringValue()
	case *Var:
		y := b.(*Var)
		return x.Name == y.Name && x.IsPointer == y.IsPointer
	case *Let:
		y := b.(*Let)
		if x.Var != y.Var || x.IsPointer != y.IsPointer {
			return false
		}
	case *App:
		y := b.(*App)
		if x.ObjectName != y.ObjectName || x.Fun != y.Fun {
			return false
		}
	}

	ac, bc := Children(a), Children(b)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}
