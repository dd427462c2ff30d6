package eval

import (
	"fmt"
	"strings"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// CoreNs is the namespace consulted before the calling namespace and before
// imports (spec §4.7 rule 5). primes.rs (the constant's home in the
// original) was not part of the retrieved source; "calcit.core" is the
// project's well-known core library namespace.
const CoreNs = "calcit.core"

// Preprocess walks expr once, replacing every Symbol with a
// resolution-annotated Symbol or rewriting the node outright (spec §4.7).
// It returns the rewritten form and, when the form is one whose value is
// already known at preprocessing time (a literal, a Proc, or a top-level def
// reference, whose stored value may be a Thunk or the provisional Nil), that
// value too — nil otherwise. The second
// return lets list-head dispatch recognize a Macro without a second full
// evaluation pass, mirroring the original preprocessor's (Calcit, Option
// <Calcit>) pair.
func Preprocess(ev *Eval, expr value.Value, scopeDefs map[string]bool, ns string) (value.Value, value.Value, error) {
	switch v := expr.(type) {
	case value.Number, value.Str, value.NilType, value.Bool, value.Keyword, value.Proc:
		return v, v, nil
	case *value.Symbol:
		return preprocessSymbol(ev, v, scopeDefs, ns)
	case *value.List:
		if v.Len() == 0 {
			return v, nil, nil
		}
		return preprocessListCall(ev, v, scopeDefs, ns)
	default:
		return v, nil, nil
	}
}

func preprocessSymbol(ev *Eval, sym *value.Symbol, scopeDefs map[string]bool, ns string) (value.Value, value.Value, error) {
	name := sym.Name

	if nsAlias, defPart, ok := splitNsDef(name); ok {
		target, found := ev.Store.LookupNsTargetInImport(ns, nsAlias)
		if !found {
			if ev.Store.HasDefCode(nsAlias, defPart) {
				target = nsAlias
			} else {
				return nil, nil, fmt.Errorf("unknown ns target: %s", name)
			}
		}
		resolved, val, err := PreprocessNsDef(ev, target, defPart, sym)
		if s, ok := resolved.(*value.Symbol); ok && found {
			s.ImportRule = value.AliasImportRule
		}
		return resolved, val, err
	}

	switch {
	case value.IsRawMarkerName(name):
		return sym.WithResolution(value.Resolution{Kind: value.RawMarker}), nil, nil
	case scopeDefs[name]:
		return sym.WithResolution(value.Resolution{Kind: value.LocalBinding}), nil, nil
	}

	if kind, ok := value.LookupSyntax(name); ok {
		return value.Syntax{Kind: kind, DefiningNs: ns}, nil, nil
	}
	if _, ok := LookupProc(name); ok {
		return value.Proc(name), value.Proc(name), nil
	}
	if strings.HasPrefix(name, ".") {
		return value.Proc(name), value.Proc(name), nil // invoke-method sugar, handled at the call site
	}

	if ev.Store.HasDefCode(CoreNs, name) {
		return PreprocessNsDef(ev, CoreNs, name, sym)
	}
	if ev.Store.HasDefCode(ns, name) {
		return PreprocessNsDef(ev, ns, name, sym)
	}
	if rule, ok := ev.Store.LookupDefTargetInImport(ns, name); ok {
		resolved, val, err := PreprocessNsDef(ev, rule.Ns, rule.Def, sym)
		if s, ok := resolved.(*value.Symbol); ok {
			s.ImportRule = value.DirectReferImportRule
		}
		return resolved, val, err
	}
	if rule, ok := ev.Store.LookupDefaultTargetInImport(ns, name); ok {
		resolved := sym.WithResolution(value.Resolution{
			Kind: value.ResolvedDef, Ns: rule.Ns, Def: rule.Def, ImportRule: value.DefaultImportRule,
		})
		return resolved, nil, nil
	}

	ev.Warn("unknown symbol %q in %s", name, ns)
	return sym, nil, nil
}

func splitNsDef(name string) (nsAlias, def string, ok bool) {
	i := strings.IndexByte(name, '/')
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}

// PreprocessNsDef resolves a specific ns/def reference (spec §4.7 rule 5,
// "recursively preprocess the referenced definition if not yet evaluated").
// originalSym carries the textual symbol the reference appeared as, reused
// in the returned resolved Symbol so the surface spelling survives.
func PreprocessNsDef(ev *Eval, ns, def string, originalSym *value.Symbol) (value.Value, value.Value, error) {
	if v, ok := ev.Store.LookupEvaledDef(ns, def); ok {
		resolved := originalSym.WithResolution(value.Resolution{Kind: value.ResolvedDef, Ns: ns, Def: def})
		return resolved, v, nil
	}

	code, ok := ev.Store.LookupDefCode(ns, def)
	if !ok {
		return nil, nil, fmt.Errorf("unknown ns/def in program: %s/%s", ns, def)
	}

	// Write a provisional Nil before walking the body, so a cycle through
	// mutually referring defs terminates instead of recursing forever
	// (spec §4.7 last paragraph, §8 scenario 6, §9 "Cyclic definition graphs").
	ev.Store.WriteEvaledDef(ns, def, value.Nil)

	resolvedCode, _, err := Preprocess(ev, code, map[string]bool{}, ns)
	if err != nil {
		return nil, nil, err
	}

	var v value.Value
	if isFnOrMacroLiteral(resolvedCode) {
		v, err = ev.Evaluate(resolvedCode, value.NewScope(), ns)
		if err != nil {
			return nil, nil, err
		}
	} else {
		v = value.NewThunk(resolvedCode, ns)
	}
	ev.Store.WriteEvaledDef(ns, def, v)

	resolved := originalSym.WithResolution(value.Resolution{Kind: value.ResolvedDef, Ns: ns, Def: def})
	return resolved, v, nil
}

func isFnOrMacroLiteral(code value.Value) bool {
	list, ok := code.(*value.List)
	if !ok || list.Len() == 0 {
		return false
	}
	switch h := list.Get(0).(type) {
	case *value.Symbol:
		return h.Name == "defn" || h.Name == "defmacro"
	case value.Syntax:
		return h.Kind == value.SynDefn || h.Kind == value.SynDefmacro
	default:
		return false
	}
}

func preprocessListCall(ev *Eval, list *value.List, scopeDefs map[string]bool, ns string) (value.Value, value.Value, error) {
	elems := list.ToSlice()
	head := elems[0]
	args := elems[1:]

	headForm, headVal, err := Preprocess(ev, head, scopeDefs, ns)
	if err != nil {
		return nil, nil, err
	}

	if kw, ok := headForm.(value.Keyword); ok {
		if len(args) != 1 {
			return nil, nil, fmt.Errorf("%s expected a single argument", kw)
		}
		getSym := value.NewSymbol("get", CoreNs, "get").WithResolution(value.Resolution{Kind: value.ResolvedDef, Ns: CoreNs, Def: "get"})
		rewritten := value.NewList(getSym, args[0], head)
		return Preprocess(ev, rewritten, scopeDefs, ns)
	}

	if m, ok := headVal.(*value.Macro); ok {
		return expandMacroAtPreprocessTime(ev, m, args, list, scopeDefs, ns)
	}

	if syn, ok := headForm.(value.Syntax); ok {
		return preprocessSyntaxForm(ev, syn, args, scopeDefs, ns)
	}

	if fn, ok := headVal.(*value.Fn); ok {
		checkArity(ev, fn, args, ns)
	}

	out := make([]value.Value, 0, len(elems))
	out = append(out, headForm)
	for _, a := range args {
		form, _, err := Preprocess(ev, a, scopeDefs, ns)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, form)
	}
	return value.NewList(out...), nil, nil
}

func expandMacroAtPreprocessTime(ev *Eval, m *value.Macro, args []value.Value, code value.Value, scopeDefs map[string]bool, ns string) (value.Value, value.Value, error) {
	expanded, err := ev.ExpandMacro(m, args, code)
	if err != nil {
		return nil, nil, err
	}
	return Preprocess(ev, expanded, scopeDefs, ns)
}

func preprocessSyntaxForm(ev *Eval, syn value.Syntax, args []value.Value, scopeDefs map[string]bool, ns string) (value.Value, value.Value, error) {
	rebuild := func(processedArgs []value.Value) value.Value {
		out := make([]value.Value, 0, len(processedArgs)+1)
		out = append(out, syn)
		out = append(out, processedArgs...)
		return value.NewList(out...)
	}

	switch syn.Kind {
	case value.SynQuote, value.SynEval, value.SynHintFn:
		// Like quote, eval and hint-fn leave their arguments entirely
		// unprocessed: eval's argument is itself data describing code to be
		// resolved when it actually runs, and hint-fn's wrapped form is
		// evaluated as-is, its symbols resolved at evaluation time by the
		// evaluator's unresolved-symbol fallback.
		return rebuild(args), nil, nil

	case value.SynQuasiquote:
		processed := make([]value.Value, len(args))
		for i, a := range args {
			p, err := preprocessQuasiquoteInternal(ev, a, scopeDefs, ns)
			if err != nil {
				return nil, nil, err
			}
			processed[i] = p
		}
		return rebuild(processed), nil, nil

	case value.SynDefn, value.SynDefmacro:
		if len(args) < 2 {
			return nil, nil, fmt.Errorf("%s: expected a name and a parameter list", syn.Kind)
		}
		params, ok := args[1].(*value.List)
		if !ok {
			return nil, nil, fmt.Errorf("%s: expected a parameter list", syn.Kind)
		}
		bodyDefs := cloneScope(scopeDefs)
		for _, p := range params.ToSlice() {
			sym, ok := p.(*value.Symbol)
			if !ok || value.IsRawMarkerName(sym.Name) {
				continue
			}
			bodyDefs[sym.Name] = true
		}
		nameSym, _ := args[0].(*value.Symbol)
		out := []value.Value{syn}
		if nameSym != nil {
			out = append(out, nameSym.WithResolution(value.Resolution{Kind: value.RawMarker}))
		} else {
			out = append(out, args[0])
		}
		out = append(out, params)
		for _, b := range args[2:] {
			form, _, err := Preprocess(ev, b, bodyDefs, ns)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, form)
		}
		return value.NewList(out...), nil, nil

	case value.SynCoreLet:
		if len(args) == 0 {
			return nil, nil, fmt.Errorf("&let: expected a binding pair or nil")
		}
		bodyDefs := cloneScope(scopeDefs)
		var bindingForm value.Value
		switch b := args[0].(type) {
		case value.NilType:
			bindingForm = b
		case *value.List:
			if b.Len() != 2 {
				return nil, nil, fmt.Errorf("&let: invalid binding length %d", b.Len())
			}
			sym, ok := b.Get(0).(*value.Symbol)
			if !ok {
				return nil, nil, fmt.Errorf("&let: invalid binding name")
			}
			valForm, _, err := Preprocess(ev, b.Get(1), scopeDefs, ns)
			if err != nil {
				return nil, nil, err
			}
			bodyDefs[sym.Name] = true
			bindingForm = value.NewList(sym.WithResolution(value.Resolution{Kind: value.RawMarker}), valForm)
		default:
			return nil, nil, fmt.Errorf("&let: invalid binding node %s", b.Type())
		}
		out := []value.Value{syn, bindingForm}
		for _, b := range args[1:] {
			form, _, err := Preprocess(ev, b, bodyDefs, ns)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, form)
		}
		return value.NewList(out...), nil, nil

	case value.SynIf, value.SynTry, value.SynMacroexpand,
		value.SynMacroexpand1, value.SynMacroexpandAll, value.SynReset,
		value.SynDefatom, value.SynFoldl:
		out := make([]value.Value, len(args))
		for i, a := range args {
			form, _, err := Preprocess(ev, a, scopeDefs, ns)
			if err != nil {
				return nil, nil, err
			}
			out[i] = form
		}
		return rebuild(out), nil, nil

	default:
		return rebuild(args), nil, nil
	}
}

// preprocessQuasiquoteInternal preprocesses only inside `~`/`~@` children,
// leaving everything else untouched (spec §4.7: "quasiquote recurses,
// preprocessing only inside ~ and ~@ children").
func preprocessQuasiquoteInternal(ev *Eval, x value.Value, scopeDefs map[string]bool, ns string) (value.Value, error) {
	list, ok := x.(*value.List)
	if !ok || list.Len() == 0 {
		return x, nil
	}
	if isUnquote(list) || isUnquoteSplice(list) {
		elems := list.ToSlice()
		out := make([]value.Value, len(elems))
		for i, e := range elems {
			form, _, err := Preprocess(ev, e, scopeDefs, ns)
			if err != nil {
				return nil, err
			}
			out[i] = form
		}
		return value.NewList(out...), nil
	}
	elems := list.ToSlice()
	out := make([]value.Value, len(elems))
	for i, e := range elems {
		p, err := preprocessQuasiquoteInternal(ev, e, scopeDefs, ns)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return value.NewList(out...), nil
}

// checkArity emits a warning (never an error) when a direct call's argument
// count does not match the called function's parameter list (spec §4.7,
// "arity checker... emits a warning (not an error) on mismatch").
func checkArity(ev *Eval, fn *value.Fn, args []value.Value, ns string) {
	params := fn.Params.ToSlice()
	i, j := 0, 0
	optional := false
	for {
		var d, r value.Value
		if i < len(params) {
			d = params[i]
		}
		if j < len(args) {
			r = args[j]
		}
		switch {
		case d == nil && r == nil:
			return
		case symName(d) == "&":
			return
		case symName(d) == "?":
			optional = true
			i++
			continue
		case d != nil && r == nil:
			if optional {
				i++
				j++
				continue
			}
			ev.Warn("too few args for %s in %s", fn.Name, ns)
			return
		case d == nil && r != nil:
			ev.Warn("too many args for %s in %s", fn.Name, ns)
			return
		default:
			i++
			j++
		}
	}
}

func symName(v value.Value) string {
	sym, ok := v.(*value.Symbol)
	if !ok {
		return ""
	}
	return sym.Name
}

func cloneScope(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s)+2)
	for k, v := range s {
		out[k] = v
	}
	return out
}
