package value

// Equal implements structural equality. Symbol equality ignores the
// Resolution annotation, as required by spec §3 ("Equality is structural and
// ignores symbol resolution") — only the symbol's Name is compared, matching
// how the reader/quoter produces symbols purely from their textual spelling.
func Equal(x, y Value) bool {
	return valuesEqual(x, y)
}

func valuesEqual(x, y Value) bool {
	switch xv := x.(type) {
	case *Symbol:
		yv, ok := y.(*Symbol)
		return ok && xv.Name == yv.Name
	case *List:
		yv, ok := y.(*List)
		if !ok || xv.Len() != yv.Len() {
			return false
		}
		for i := 0; i < xv.Len(); i++ {
			if !valuesEqual(xv.Get(i), yv.Get(i)) {
				return false
			}
		}
		return true
	case Tuple:
		yv, ok := y.(Tuple)
		if !ok || len(xv) != len(yv) {
			return false
		}
		for i := range xv {
			if !valuesEqual(xv[i], yv[i]) {
				return false
			}
		}
		return true
	case *Map:
		yv, ok := y.(*Map)
		if !ok || xv.Len() != yv.Len() {
			return false
		}
		equal := true
		xv.Each(func(k, v Value) {
			ov, found := yv.Get(k)
			if !found || !valuesEqual(v, ov) {
				equal = false
			}
		})
		return equal
	case *Set:
		yv, ok := y.(*Set)
		if !ok || xv.Len() != yv.Len() {
			return false
		}
		equal := true
		xv.Each(func(k Value) {
			if !yv.Has(k) {
				equal = false
			}
		})
		return equal
	case *Record:
		yv, ok := y.(*Record)
		if !ok || xv.name != yv.name || len(xv.fields) != len(yv.fields) {
			return false
		}
		for i := range xv.fields {
			if xv.fields[i] != yv.fields[i] || !valuesEqual(xv.values[i], yv.values[i]) {
				return false
			}
		}
		return true
	default:
		ox, xIsOrdered := x.(Ordered)
		oy, yIsOrdered := y.(Ordered)
		if xIsOrdered && yIsOrdered && x.Type() == y.Type() {
			return ox.Cmp(oy) == 0
		}
		return x == y
	}
}

// Compare implements the total ordering over all variants (spec §3): values
// of different variants are ordered by a fixed variant rank; values of the
// same variant use that variant's Cmp.
func Compare(x, y Value) int { return compareValues(x, y) }

func compareValues(x, y Value) int {
	rx, ry := variantRank(x), variantRank(y)
	if rx != ry {
		return rx - ry
	}
	if ox, ok := x.(Ordered); ok {
		return ox.Cmp(y)
	}
	// Variant has no defined Cmp (e.g. Fn, Macro, Thunk, Proc, Syntax, Ref):
	// order by friendly-form string, so two such values that print the same
	// compare equal.
	return compareByPrintedForm(x, y)
}

func compareByPrintedForm(x, y Value) int {
	xs, ys := x.String(), y.String()
	switch {
	case xs < ys:
		return -1
	case xs > ys:
		return 1
	default:
		return 0
	}
}
