package eval

import (
	"fmt"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// MethodFn implements one case of the invoke-method sugar `.method` (spec
// §4.8). recv is the first call argument, args the rest.
type MethodFn func(recv value.Value, args []value.Value) (value.Value, error)

// invokeMethod resolves the ".method" sugar (spec §4.8, supplemented by
// original_source/src/builtins/records.rs: a record built through
// new-class-record attaches a class value consulted for method dispatch).
// A record whose Class() is a *value.Map is checked first, keyed by method
// name as a Keyword mapping to a *value.Fn; anything else falls back to the
// evaluator's built-in method table (len, get, ...) so non-record receivers
// keep working the way they did before classes existed.
func (ev *Eval) invokeMethod(name string, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, WrapErr(fmt.Errorf("method .%s: missing receiver", name), ev.Stack)
	}
	recv, rest := args[0], args[1:]

	if rec, ok := recv.(*value.Record); ok {
		if class, ok := rec.Class().(*value.Map); ok {
			if fnVal, ok := class.Get(value.Keyword(name)); ok {
				fn, ok := fnVal.(*value.Fn)
				if !ok {
					return nil, WrapErr(fmt.Errorf("class method %q is not callable", name), ev.Stack)
				}
				return ev.CallValue(fn, append([]value.Value{recv}, rest...))
			}
		}
	}

	m, ok := ev.Methods[name]
	if !ok {
		return nil, WrapErr(fmt.Errorf("unknown method %q", name), ev.Stack)
	}
	return m(recv, rest)
}

// defaultMethods is the fallback table consulted when a receiver has no
// class (or its class has no matching entry): spec §4.1's two
// collection-shaped conveniences, `len` and `get`, expressed as methods.
func defaultMethods() map[string]MethodFn {
	return map[string]MethodFn{
		"len": func(recv value.Value, _ []value.Value) (value.Value, error) {
			return procCount([]value.Value{recv})
		},
		"get": func(recv value.Value, args []value.Value) (value.Value, error) {
			return procGet(append([]value.Value{recv}, args...))
		},
	}
}
