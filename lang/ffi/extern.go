// Package ffi implements the surface of the foreign-function bridge (spec
// §4.9, §6, §9 L9): three injected procs that let a host library be invoked
// from inside the evaluator, plus the worker-thread/callback machinery the
// callback-taking variants need. `src/bin/injection/mod.rs` shows the same
// three call patterns (call, callback, call-with-host-callback) wired as a
// thin shim around its own interpreter; this package mirrors that shape with
// Go's `plugin` package standing in for dlopen and goroutines standing in
// for OS threads.
package ffi

import (
	"fmt"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// ExternValue is the serializable analogue of value.Value that crosses the
// FFI boundary (spec §6, "ExternValue... supporting the primitives, lists,
// maps, and tags"). It is intentionally a plain Go value so that a dylib
// built without depending on calcit-go's internal packages can still
// produce/consume it.
type ExternValue interface{}

// ToExtern converts v to its ExternValue form. Conversion is total for Nil,
// Bool, Number, Str, Keyword, List and Set, and for a Map whose keys are all
// Str or Keyword (any other map key fails); it fails for Fn, Macro,
// Thunk, Ref and Record (spec §6), since those carry evaluator-internal
// state (captured scopes, mutable cells, field ordering) that has no
// meaning outside the process.
func ToExtern(v value.Value) (ExternValue, error) {
	switch x := v.(type) {
	case value.NilType:
		return nil, nil
	case value.Bool:
		return bool(x), nil
	case value.Number:
		return float64(x), nil
	case value.Str:
		return string(x), nil
	case value.Keyword:
		return string(x), nil
	case *value.List:
		out := make([]ExternValue, 0, x.Len())
		for _, e := range x.ToSlice() {
			ev, err := ToExtern(e)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	case *value.Set:
		out := make([]ExternValue, 0, x.Len())
		for _, e := range x.ToSlice() {
			ev, err := ToExtern(e)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	case *value.Map:
		out := make(map[string]ExternValue, x.Len())
		var convErr error
		x.Each(func(k, mv value.Value) {
			if convErr != nil {
				return
			}
			ks, ok := externKeyString(k)
			if !ok {
				convErr = fmt.Errorf("ffi: map key %s has no string-like ExternValue form", k.Type())
				return
			}
			cv, err := ToExtern(mv)
			if err != nil {
				convErr = err
				return
			}
			out[ks] = cv
		})
		if convErr != nil {
			return nil, convErr
		}
		return out, nil
	default:
		return nil, fmt.Errorf("ffi: %s has no ExternValue form", v.Type())
	}
}

func externKeyString(k value.Value) (string, bool) {
	switch x := k.(type) {
	case value.Str:
		return string(x), true
	case value.Keyword:
		return string(x), true
	default:
		return "", false
	}
}

// FromExtern converts an ExternValue received from a dylib back into a
// value.Value.
func FromExtern(x ExternValue) (value.Value, error) {
	switch v := x.(type) {
	case nil:
		return value.Nil, nil
	case bool:
		return value.Bool(v), nil
	case float64:
		return value.Number(v), nil
	case int:
		return value.Number(v), nil
	case string:
		return value.Str(v), nil
	case []ExternValue:
		elems := make([]value.Value, 0, len(v))
		for _, e := range v {
			cv, err := FromExtern(e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, cv)
		}
		return value.NewList(elems...), nil
	case map[string]ExternValue:
		pairs := make([]value.Value, 0, 2*len(v))
		for k, mv := range v {
			cv, err := FromExtern(mv)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, value.Str(k), cv)
		}
		return value.NewMap(pairs...), nil
	default:
		return nil, fmt.Errorf("ffi: unsupported ExternValue go type %T", x)
	}
}
