package eval

import (
	"fmt"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// paramNames flattens a Fn/Macro parameter List into the []string shape
// BindArgs expects; raw markers `&`/`?` pass through verbatim.
func paramNames(params *value.List) []string {
	elems := params.ToSlice()
	out := make([]string, len(elems))
	for i, e := range elems {
		if sym, ok := e.(*value.Symbol); ok {
			out[i] = sym.Name
			continue
		}
		out[i] = fmt.Sprintf("%v", e)
	}
	return out
}

// applyFn calls fn with already-evaluated args, implementing tail-call
// recycling (spec §4.8): if the body's last expression returns a Recur, its
// values are rebound to params and the body runs again instead of growing
// the Go call stack.
func (ev *Eval) applyFn(fn *value.Fn, args []value.Value, code value.Value) (value.Value, error) {
	ev.Stack.Push(Frame{Ns: fn.DefiningNs, Def: fn.Name, Kind: FrameFn, Code: code, Args: args})
	defer ev.Stack.Pop()

	params := paramNames(fn.Params)
	curArgs := args
	for steps := 0; ; steps++ {
		if ev.MaxSteps > 0 && steps >= ev.MaxSteps {
			return nil, WrapErr(fmt.Errorf("recur loop exceeded %d steps in %s/%s", ev.MaxSteps, fn.DefiningNs, fn.Name), ev.Stack)
		}
		scope, err := BindArgs(params, curArgs, fn.CapturedScope, ev.forceThunk)
		if err != nil {
			return nil, WrapErr(err, ev.Stack)
		}
		v, err := ev.evalBody(fn.Body, scope, fn.DefiningNs)
		if err != nil {
			return nil, err
		}
		if r, ok := v.(value.Recur); ok {
			curArgs = r.Args.ToSlice()
			continue
		}
		return v, nil
	}
}

// evalBody evaluates a sequence of body forms in order and returns the last
// result, or Nil for an empty body.
func (ev *Eval) evalBody(body *value.List, scope *value.Scope, ns string) (value.Value, error) {
	elems := body.ToSlice()
	if len(elems) == 0 {
		return value.Nil, nil
	}
	var result value.Value = value.Nil
	for _, e := range elems {
		v, err := ev.Evaluate(e, scope, ns)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

// CallValue applies fn (a *value.Fn or value.Proc) to already-evaluated
// args. Used by syntax handlers (foldl, try) that need to invoke a value as
// a callback without going through a List call form.
func (ev *Eval) CallValue(fn value.Value, args []value.Value) (value.Value, error) {
	switch f := fn.(type) {
	case *value.Fn:
		return ev.applyFn(f, args, nil)
	case value.Proc:
		return ev.callProc(string(f), args, nil)
	default:
		return nil, WrapErr(fmt.Errorf("NotCallable: %s is not callable", value.TypeOf(fn)), ev.Stack)
	}
}

// ExpandMacro runs a macro's body against unevaluated argument forms,
// looping while the body returns Recur (spec §4.7: "evaluates the macro
// body repeatedly as long as the body returns a Recur sentinel" — the
// compile-time fixed point).
func (ev *Eval) ExpandMacro(m *value.Macro, rawArgs []value.Value, code value.Value) (value.Value, error) {
	ev.Stack.Push(Frame{Ns: m.DefiningNs, Def: m.Name, Kind: FrameMacro, Code: code, Args: rawArgs})
	defer ev.Stack.Pop()

	params := paramNames(m.Params)
	identity := func(v value.Value) (value.Value, error) { return v, nil }
	curArgs := rawArgs
	for steps := 0; ; steps++ {
		if ev.MaxSteps > 0 && steps >= ev.MaxSteps {
			return nil, WrapErr(fmt.Errorf("macro expansion exceeded %d steps in %s/%s", ev.MaxSteps, m.DefiningNs, m.Name), ev.Stack)
		}
		scope, err := BindArgs(params, curArgs, value.NewScope(), identity)
		if err != nil {
			return nil, WrapErr(err, ev.Stack)
		}
		v, err := ev.evalBody(m.Body, scope, m.DefiningNs)
		if err != nil {
			return nil, err
		}
		if r, ok := v.(value.Recur); ok {
			curArgs = r.Args.ToSlice()
			continue
		}
		return v, nil
	}
}

// headMacro evaluates form's head, if form is a non-empty List, and reports
// the Macro it resolves to, if any. Used by the macroexpand family, which
// must inspect a quoted form's head without fully evaluating the form.
func (ev *Eval) headMacro(form value.Value, scope *value.Scope, ns string) (*value.Macro, *value.List, bool, error) {
	list, ok := form.(*value.List)
	if !ok || list.Len() == 0 {
		return nil, nil, false, nil
	}
	head, err := ev.Evaluate(list.Get(0), scope, ns)
	if err != nil {
		return nil, nil, false, err
	}
	m, ok := head.(*value.Macro)
	if !ok {
		return nil, nil, false, nil
	}
	return m, list, true, nil
}
