package eval

import (
	"fmt"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// evalFunc is the minimal evaluation capability the quasiquote engine
// needs: evaluate a single already-resolved-or-raw form in a scope. The
// method value (*Eval).Evaluate satisfies this; keeping the dependency this narrow lets
// quasiquote.go be tested in isolation from the rest of the evaluator.
type evalFunc func(expr value.Value, scope *value.Scope, ns string) (value.Value, error)

// Quasiquote resolves `~` and `~@` inside tree (spec §4.5). Nested
// quasiquote is not supported: a `quasiquote` found while walking is treated
// as ordinary data, exactly as the spec's open question says the source
// leaves this undefined — this implementation does not special-case it
// either way, so it simply is not unwrapped.
func Quasiquote(tree value.Value, scope *value.Scope, ns string, eval evalFunc) (value.Value, error) {
	list, ok := tree.(*value.List)
	if !ok {
		return tree, nil
	}

	if isUnquote(list) {
		arg, err := unquoteArg(list)
		if err != nil {
			return nil, err
		}
		return eval(arg, scope, ns)
	}
	if isUnquoteSplice(list) {
		// An unquote-splice with no surrounding list to splice into: evaluate
		// and hand back the result directly.
		arg, err := unquoteArg(list)
		if err != nil {
			return nil, err
		}
		return eval(arg, scope, ns)
	}

	if !containsUnquote(list) {
		return list, nil // fast path: no unquote anywhere, return as-is
	}

	elems := list.ToSlice()
	out := make([]value.Value, 0, len(elems))
	for _, c := range elems {
		if cl, ok := c.(*value.List); ok && isUnquoteSplice(cl) {
			arg, err := unquoteArg(cl)
			if err != nil {
				return nil, err
			}
			spliced, err := eval(arg, scope, ns)
			if err != nil {
				return nil, err
			}
			splicedList, ok := spliced.(*value.List)
			if !ok {
				return nil, fmt.Errorf("quasiquote: ~@ requires a list, got %s", spliced.Type())
			}
			out = append(out, splicedList.ToSlice()...)
			continue
		}
		v, err := Quasiquote(c, scope, ns, eval)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return value.NewList(out...), nil
}

func isUnquote(l *value.List) bool       { return headSymbolName(l) == "~" }
func isUnquoteSplice(l *value.List) bool { return headSymbolName(l) == "~@" }

func headSymbolName(l *value.List) string {
	if l.Len() == 0 {
		return ""
	}
	if sym, ok := l.Get(0).(*value.Symbol); ok {
		return sym.Name
	}
	return ""
}

func unquoteArg(l *value.List) (value.Value, error) {
	if l.Len() != 2 {
		return nil, fmt.Errorf("quasiquote: %s expects exactly one argument", headSymbolName(l))
	}
	return l.Get(1), nil
}

// containsUnquote reports whether list, or anything reachable from it
// through nested lists, contains a `~` or `~@` form.
func containsUnquote(list *value.List) bool {
	if isUnquote(list) || isUnquoteSplice(list) {
		return true
	}
	for _, c := range list.ToSlice() {
		if cl, ok := c.(*value.List); ok && containsUnquote(cl) {
			return true
		}
	}
	return false
}
