package eval

import (
	"fmt"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// SyntaxHandler implements one special form: it receives the unevaluated
// argument list and decides for itself how (or whether) to evaluate each
// child (spec §4.6, §4.9).
type SyntaxHandler func(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error)

var syntaxes = map[value.SyntaxKind]SyntaxHandler{
	value.SynDefn:           synDefn,
	value.SynDefmacro:       synDefmacro,
	value.SynIf:             synIf,
	value.SynCoreLet:        synCoreLet,
	value.SynQuote:          synQuote,
	value.SynQuasiquote:     synQuasiquote,
	value.SynEval:           synEval,
	value.SynTry:            synTry,
	value.SynMacroexpand:    synMacroexpand,
	value.SynMacroexpand1:   synMacroexpand1,
	value.SynMacroexpandAll: synMacroexpandAll,
	value.SynDefatom:        synDefatom,
	value.SynHintFn:         synHintFn,
	value.SynReset:          synReset,
	value.SynFoldl:          synFoldl,
}

// LookupSyntax returns the handler registered for kind.
func LookupSyntax(kind value.SyntaxKind) (SyntaxHandler, bool) {
	h, ok := syntaxes[kind]
	return h, ok
}

func synDefn(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() < 2 {
		return nil, fmt.Errorf("defn: expected a name and a parameter list")
	}
	sym, ok := tail.Get(0).(*value.Symbol)
	if !ok {
		return nil, fmt.Errorf("defn: expected a symbol name, got %s", tail.Get(0).Type())
	}
	params, ok := tail.Get(1).(*value.List)
	if !ok {
		return nil, fmt.Errorf("defn: expected a parameter list, got %s", tail.Get(1).Type())
	}
	body := value.NewList(tail.ToSlice()[2:]...)
	return value.NewFn(sym.Name, ns, scope, params, body), nil
}

func synDefmacro(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() < 2 {
		return nil, fmt.Errorf("defmacro: expected a name and a parameter list")
	}
	sym, ok := tail.Get(0).(*value.Symbol)
	if !ok {
		return nil, fmt.Errorf("defmacro: expected a symbol name, got %s", tail.Get(0).Type())
	}
	params, ok := tail.Get(1).(*value.List)
	if !ok {
		return nil, fmt.Errorf("defmacro: expected a parameter list, got %s", tail.Get(1).Type())
	}
	body := value.NewList(tail.ToSlice()[2:]...)
	return value.NewMacro(sym.Name, ns, params, body), nil
}

func synIf(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() < 2 || tail.Len() > 3 {
		return nil, fmt.Errorf("if: expected 2 or 3 nodes, got %d", tail.Len())
	}
	cond, err := ev.Evaluate(tail.Get(0), scope, ns)
	if err != nil {
		return nil, err
	}
	if value.Truthy(cond) {
		return ev.Evaluate(tail.Get(1), scope, ns)
	}
	if tail.Len() == 3 {
		return ev.Evaluate(tail.Get(2), scope, ns)
	}
	return value.Nil, nil
}

func synCoreLet(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() == 0 {
		return nil, fmt.Errorf("&let: expected a binding pair or nil")
	}
	binding := tail.Get(0)
	bodyScope := scope
	switch b := binding.(type) {
	case value.NilType:
		// no binding, body runs in the current scope
	case *value.List:
		if b.Len() != 2 {
			return nil, fmt.Errorf("&let: invalid binding length %d", b.Len())
		}
		sym, ok := b.Get(0).(*value.Symbol)
		if !ok {
			return nil, fmt.Errorf("&let: invalid binding name %s", b.Get(0).Type())
		}
		v, err := ev.Evaluate(b.Get(1), scope, ns)
		if err != nil {
			return nil, err
		}
		bodyScope = scope.ExtendOne(sym.Name, v)
	default:
		return nil, fmt.Errorf("&let: invalid node %s", binding.Type())
	}
	return ev.evalBody(value.NewList(tail.ToSlice()[1:]...), bodyScope, ns)
}

func synQuote(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 1 {
		return nil, fmt.Errorf("quote: expected exactly one node, got %d", tail.Len())
	}
	return tail.Get(0), nil
}

func synQuasiquote(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 1 {
		return nil, fmt.Errorf("quasiquote: expected exactly one node, got %d", tail.Len())
	}
	return Quasiquote(tail.Get(0), scope, ns, ev.Evaluate)
}

func synEval(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 1 {
		return nil, fmt.Errorf("eval: expected exactly one node, got %d", tail.Len())
	}
	code, err := ev.Evaluate(tail.Get(0), scope, ns)
	if err != nil {
		return nil, err
	}
	return ev.Evaluate(code, scope, ns)
}

func synTry(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 2 {
		return nil, fmt.Errorf("try: expected a body and a handler, got %d nodes", tail.Len())
	}
	result, bodyErr := ev.Evaluate(tail.Get(0), scope, ns)
	if bodyErr == nil {
		return result, nil
	}
	handler, err := ev.Evaluate(tail.Get(1), scope, ns)
	if err != nil {
		return nil, err
	}
	return ev.CallValue(handler, []value.Value{value.Str(bodyErr.Error())})
}

func synMacroexpand(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	return macroexpandFull(ev, tail, scope, ns)
}

func synMacroexpand1(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 1 {
		return nil, fmt.Errorf("macroexpand-1: expected exactly one node, got %d", tail.Len())
	}
	quoted, err := ev.Evaluate(tail.Get(0), scope, ns)
	if err != nil {
		return nil, err
	}
	m, list, ok, err := ev.headMacro(quoted, scope, ns)
	if err != nil {
		return nil, err
	}
	if !ok {
		return quoted, nil
	}
	return expandOneLevel(ev, m, list, scope)
}

func synMacroexpandAll(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	expanded, err := macroexpandFull(ev, tail, scope, ns)
	if err != nil {
		return nil, err
	}
	reprocessed, _, err := Preprocess(ev, expanded, map[string]bool{}, ns)
	if err != nil {
		return nil, err
	}
	return reprocessed, nil
}

// macroexpandFull implements `macroexpand`'s fixed point: evaluate the
// argument once to get a quoted form, then if its head is a Macro, run the
// macro's Recur loop to completion (spec §4.9, grounded on the original
// `macroexpand`'s "keep expanding until return value is not a recur").
func macroexpandFull(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 1 {
		return nil, fmt.Errorf("macroexpand: expected exactly one node, got %d", tail.Len())
	}
	quoted, err := ev.Evaluate(tail.Get(0), scope, ns)
	if err != nil {
		return nil, err
	}
	m, list, ok, err := ev.headMacro(quoted, scope, ns)
	if err != nil {
		return nil, err
	}
	if !ok {
		return quoted, nil
	}
	return ev.ExpandMacro(m, list.Rest().ToSlice(), list)
}

func expandOneLevel(ev *Eval, m *value.Macro, list *value.List, scope *value.Scope) (value.Value, error) {
	params := paramNames(m.Params)
	identity := func(v value.Value) (value.Value, error) { return v, nil }
	bodyScope, err := BindArgs(params, list.Rest().ToSlice(), value.NewScope(), identity)
	if err != nil {
		return nil, err
	}
	return ev.evalBody(m.Body, bodyScope, m.DefiningNs)
}

func synDefatom(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 2 {
		return nil, fmt.Errorf("defatom: expected a name and an init expression")
	}
	sym, ok := tail.Get(0).(*value.Symbol)
	if !ok {
		return nil, fmt.Errorf("defatom: expected a symbol name, got %s", tail.Get(0).Type())
	}
	init, err := ev.Evaluate(tail.Get(1), scope, ns)
	if err != nil {
		return nil, err
	}
	return value.NewRef(sym.Name, init), nil
}

func synReset(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 2 {
		return nil, fmt.Errorf("reset!: expected a ref and a new value")
	}
	target, err := ev.Evaluate(tail.Get(0), scope, ns)
	if err != nil {
		return nil, err
	}
	ref, ok := target.(*value.Ref)
	if !ok {
		return nil, fmt.Errorf("reset!: expected a ref, got %s", target.Type())
	}
	v, err := ev.Evaluate(tail.Get(1), scope, ns)
	if err != nil {
		return nil, err
	}
	return ref.Reset(v), nil
}

// synHintFn is a no-op wrapper around a function literal, kept only so
// source that hints a performance-sensitive definition for a downstream
// compiler still evaluates under this evaluator.
func synHintFn(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 1 {
		return nil, fmt.Errorf("hint-fn: expected exactly one node, got %d", tail.Len())
	}
	return ev.Evaluate(tail.Get(0), scope, ns)
}

func synFoldl(ev *Eval, tail *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if tail.Len() != 3 {
		return nil, fmt.Errorf("foldl: expected a list, a seed and a function, got %d nodes", tail.Len())
	}
	listVal, err := ev.Evaluate(tail.Get(0), scope, ns)
	if err != nil {
		return nil, err
	}
	l, ok := listVal.(*value.List)
	if !ok {
		return nil, fmt.Errorf("foldl: expected a list, got %s", listVal.Type())
	}
	acc, err := ev.Evaluate(tail.Get(1), scope, ns)
	if err != nil {
		return nil, err
	}
	fn, err := ev.Evaluate(tail.Get(2), scope, ns)
	if err != nil {
		return nil, err
	}
	for _, elem := range l.ToSlice() {
		acc, err = ev.CallValue(fn, []value.Value{acc, elem})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}
