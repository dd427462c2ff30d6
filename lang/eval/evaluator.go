package eval

import (
	"fmt"
	"strings"

	"github.com/calcit-lang/calcit-go/lang/store"
	"github.com/calcit-lang/calcit-go/lang/value"
)

// Eval is the evaluator's mutable runtime context: the program store,
// the diagnostic call stack and the warnings collector fed by the
// preprocessor. One Eval is not safe for concurrent use — mirrors the
// teacher's machine.Thread being logically single-threaded; the FFI bridge
// gives each worker its own Eval sharing only the *store.Store.
type Eval struct {
	Store    *store.Store
	Stack    *CallStack
	Warnings []string
	Methods  map[string]MethodFn

	// MaxSteps bounds the tail-recur loop (applyFn) and the macro-expansion
	// fixed-point loop (ExpandMacro), per spec §8's "implementers must bound
	// this loop or accept nontermination for ill-formed macros". Zero means
	// unbounded. CALCIT_MAX_STEPS overrides the CLI's default (see
	// internal/maincmd).
	MaxSteps int
}

// NewEval returns an Eval backed by s, with an empty call stack and the
// default invoke-method table.
func NewEval(s *store.Store) *Eval {
	return &Eval{
		Store:   s,
		Stack:   NewCallStack(),
		Methods: defaultMethods(),
	}
}

// Warn records a non-fatal diagnostic (spec §4.7 rule 6, §7
// Resolution-warning). Warnings never abort evaluation.
func (ev *Eval) Warn(format string, args ...interface{}) {
	ev.Warnings = append(ev.Warnings, fmt.Sprintf(format, args...))
}

// Evaluate is L8's central dispatch (spec §4.8).
func (ev *Eval) Evaluate(expr value.Value, scope *value.Scope, ns string) (value.Value, error) {
	switch v := expr.(type) {
	case value.NilType, value.Bool, value.Number, value.Str, value.Keyword,
		value.Proc, value.Syntax, *value.Macro, *value.Fn, value.Tuple, *value.Ref:
		return v, nil
	case *value.Symbol:
		return ev.evalSymbol(v, scope, ns)
	case *value.Thunk:
		return ev.forceThunk(v)
	case value.Recur:
		return nil, WrapErr(fmt.Errorf("internal error: Recur escaped its applier"), ev.Stack)
	case *value.List:
		return ev.evalList(v, scope, ns)
	default:
		return v, nil
	}
}

func (ev *Eval) evalSymbol(sym *value.Symbol, scope *value.Scope, ns string) (value.Value, error) {
	switch sym.Resolution.Kind {
	case value.LocalBinding:
		v, ok := scope.Lookup(sym.Name)
		if !ok {
			return nil, WrapErr(fmt.Errorf("internal error: local binding %q not found in scope", sym.Name), ev.Stack)
		}
		return v, nil
	case value.ResolvedDef:
		v, ok := ev.Store.LookupEvaledDef(sym.Resolution.Ns, sym.Resolution.Def)
		if !ok {
			return nil, WrapErr(fmt.Errorf("no evaluated value for %s/%s", sym.Resolution.Ns, sym.Resolution.Def), ev.Stack)
		}
		if th, ok := v.(*value.Thunk); ok {
			return ev.forceAndMemoize(th, sym.Resolution.Ns, sym.Resolution.Def)
		}
		return v, nil
	case value.RawMarker:
		return sym, nil
	default:
		// Unresolved: this symbol's textual occurrence never passed through
		// Preprocess (e.g. it came from inside a `quote`/`quasiquote` form
		// handed to `eval` or `macroexpand*` at runtime). Resolve it now
		// against the live scope and store instead of erroring outright,
		// mirroring the original evaluator's evaluate_symbol fallback path.
		return ev.evalUnresolvedSymbol(sym.Name, scope, sym.Ns)
	}
}

// evalUnresolvedSymbol dynamically resolves a symbol name at evaluation time,
// for the rare case of a name that reached Evaluate without ever passing
// through Preprocess (spec §4.8, "runtime symbol fallback").
func (ev *Eval) evalUnresolvedSymbol(name string, scope *value.Scope, ns string) (value.Value, error) {
	if nsAlias, defPart, ok := splitNsDef(name); ok {
		target, found := ev.Store.LookupNsTargetInImport(ns, nsAlias)
		if !found {
			return nil, WrapErr(fmt.Errorf("unknown ns target: %s", name), ev.Stack)
		}
		return ev.evalStoredDef(target, defPart)
	}
	if kind, ok := value.LookupSyntax(name); ok {
		return value.Syntax{Kind: kind, DefiningNs: ns}, nil
	}
	if v, ok := scope.Lookup(name); ok {
		return v, nil
	}
	if _, ok := LookupProc(name); ok {
		return value.Proc(name), nil
	}
	if ev.Store.HasDefCode(CoreNs, name) {
		return ev.evalStoredDef(CoreNs, name)
	}
	if ev.Store.HasDefCode(ns, name) {
		return ev.evalStoredDef(ns, name)
	}
	if rule, ok := ev.Store.LookupDefTargetInImport(ns, name); ok {
		return ev.evalStoredDef(rule.Ns, rule.Def)
	}
	if rule, ok := ev.Store.LookupDefaultTargetInImport(ns, name); ok {
		return ev.evalStoredDef(rule.Ns, rule.Def)
	}
	return nil, WrapErr(fmt.Errorf("unresolved symbol %q in %s", name, ns), ev.Stack)
}

func (ev *Eval) evalStoredDef(ns, def string) (value.Value, error) {
	if v, ok := ev.Store.LookupEvaledDef(ns, def); ok {
		if th, ok := v.(*value.Thunk); ok {
			return ev.forceAndMemoize(th, ns, def)
		}
		return v, nil
	}
	_, resolvedVal, err := PreprocessNsDef(ev, ns, def, value.NewSymbol(def, ns, def))
	if err != nil {
		return nil, err
	}
	if th, ok := resolvedVal.(*value.Thunk); ok {
		return ev.forceAndMemoize(th, ns, def)
	}
	return resolvedVal, nil
}

func (ev *Eval) forceThunk(th *value.Thunk) (value.Value, error) {
	if th.IsEvaluated() {
		return th.Evaluated, nil
	}
	v, err := ev.Evaluate(th.Code, value.NewScope(), th.Ns)
	if err != nil {
		return nil, err
	}
	th.Evaluated = v
	return v, nil
}

// forceAndMemoize forces the def's thunk and writes the evaluated value back
// into the store (spec §4.2, §4.8: "if it is a Thunk(code, None), evaluate
// code, memoize, return"). The store's own mutex serializes the write.
func (ev *Eval) forceAndMemoize(th *value.Thunk, ns, def string) (value.Value, error) {
	v, err := ev.forceThunk(th)
	if err != nil {
		return nil, err
	}
	ev.Store.WriteEvaledDef(ns, def, v)
	return v, nil
}

func (ev *Eval) evalList(list *value.List, scope *value.Scope, ns string) (value.Value, error) {
	if list.Len() == 0 {
		return nil, WrapErr(fmt.Errorf("cannot evaluate an empty list"), ev.Stack)
	}
	head, err := ev.Evaluate(list.Get(0), scope, ns)
	if err != nil {
		return nil, err
	}
	tail := list.Rest()

	switch h := head.(type) {
	case value.Proc:
		args, err := ev.evalArgs(tail, scope, ns)
		if err != nil {
			return nil, err
		}
		return ev.callProc(string(h), args, list)
	case value.Syntax:
		return ev.callSyntax(h, tail, scope, ns, list)
	case *value.Fn:
		args, err := ev.evalArgs(tail, scope, ns)
		if err != nil {
			return nil, err
		}
		return ev.applyFn(h, args, list)
	case *value.Macro:
		ev.Warn("macro %s/%s applied at evaluation time instead of being expanded by the preprocessor", h.DefiningNs, h.Name)
		expanded, err := ev.ExpandMacro(h, tail.ToSlice(), list)
		if err != nil {
			return nil, err
		}
		return ev.Evaluate(expanded, scope, ns)
	case value.Keyword:
		args, err := ev.evalArgs(tail, scope, ns)
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, WrapErr(fmt.Errorf("keyword call %s expects exactly one argument, got %d", h, len(args)), ev.Stack)
		}
		return procGet([]value.Value{args[0], h})
	default:
		return nil, WrapErr(fmt.Errorf("NotCallable: %s is not callable", value.TypeOf(head)), ev.Stack)
	}
}

func (ev *Eval) callProc(name string, args []value.Value, code value.Value) (value.Value, error) {
	if strings.HasPrefix(name, ".") {
		return ev.invokeMethod(name[1:], args)
	}
	fn, ok := LookupProc(name)
	if !ok {
		return nil, WrapErr(fmt.Errorf("unknown builtin proc %q", name), ev.Stack)
	}
	ev.Stack.Push(Frame{Kind: FrameProc, Def: name, Code: code, Args: args})
	defer ev.Stack.Pop()
	v, err := fn(args)
	if err != nil {
		return nil, WrapErr(err, ev.Stack)
	}
	return v, nil
}

func (ev *Eval) callSyntax(s value.Syntax, tail *value.List, scope *value.Scope, ns string, code value.Value) (value.Value, error) {
	handler, ok := LookupSyntax(s.Kind)
	if !ok {
		return nil, WrapErr(fmt.Errorf("unknown syntax kind %s", s.Kind), ev.Stack)
	}
	ev.Stack.Push(Frame{Kind: FrameSyntax, Ns: ns, Def: s.Kind.String(), Code: code})
	defer ev.Stack.Pop()
	v, err := handler(ev, tail, scope, ns)
	if err != nil {
		return nil, WrapErr(err, ev.Stack)
	}
	return v, nil
}

// evalArgs evaluates a call's argument list, honoring the in-band `&`
// spread marker (spec §4.8 Argument spreading): a `&` symbol preceding the
// next form evaluates that form, requires a List, and inlines its elements.
func (ev *Eval) evalArgs(tail *value.List, scope *value.Scope, ns string) ([]value.Value, error) {
	elems := tail.ToSlice()
	out := make([]value.Value, 0, len(elems))
	for i := 0; i < len(elems); i++ {
		if sym, ok := elems[i].(*value.Symbol); ok && sym.Name == "&" {
			i++
			if i >= len(elems) {
				return nil, fmt.Errorf("`&` spread marker with no following argument")
			}
			v, err := ev.Evaluate(elems[i], scope, ns)
			if err != nil {
				return nil, err
			}
			l, ok := v.(*value.List)
			if !ok {
				return nil, fmt.Errorf("`&` spread requires a list, got %s", v.Type())
			}
			out = append(out, l.ToSlice()...)
			continue
		}
		v, err := ev.Evaluate(elems[i], scope, ns)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
