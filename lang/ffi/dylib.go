package ffi

import (
	"fmt"
	"plugin"
	"sync"
	"sync/atomic"

	"github.com/calcit-lang/calcit-go/lang/eval"
	"github.com/calcit-lang/calcit-go/lang/value"
)

// DylibFn is the symbol shape `&call-dylib-edn` looks up: a pure conversion
// from a vector of ExternValues to a single ExternValue or error (spec §6).
type DylibFn func([]ExternValue) (ExternValue, error)

// DylibCallbackHostFn is the symbol shape `&call-dylib-edn-fn` looks up: the
// library function additionally receives a host callback it may invoke
// (possibly more than once, e.g. per HTTP request) to re-enter the
// evaluator before returning its own result.
type DylibCallbackHostFn func(args []ExternValue, hostCallback func([]ExternValue) (ExternValue, error)) (ExternValue, error)

var loaded = struct {
	sync.Mutex
	plugins map[string]*plugin.Plugin
}{plugins: map[string]*plugin.Plugin{}}

func openLib(libName string) (*plugin.Plugin, error) {
	loaded.Lock()
	defer loaded.Unlock()
	if p, ok := loaded.plugins[libName]; ok {
		return p, nil
	}
	p, err := plugin.Open(libName)
	if err != nil {
		return nil, fmt.Errorf("ffi: opening %q: %w", libName, err)
	}
	loaded.plugins[libName] = p
	return p, nil
}

// outstanding counts FFI calls that have been dispatched to a worker but
// have not yet delivered their callback (spec §9 "outstanding-task
// counter"). It is one counter shared by the calling goroutine and every
// worker, so it is only ever changed through sync/atomic.
var outstanding int64

// Outstanding reports the number of callback-style FFI calls still in
// flight. Exposed so a CLI entry point can wait for FFI workers to settle
// before exiting (spec §9, worker-thread lifetime).
func Outstanding() int64 { return atomic.LoadInt64(&outstanding) }

func convertArgs(args []value.Value) ([]ExternValue, error) {
	out := make([]ExternValue, len(args))
	for i, a := range args {
		x, err := ToExtern(a)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

// Register installs the three FFI procs into ev's builtin registry (spec
// §4.6: "external code may register additional procs... the FFI uses this
// to inject &call-dylib-edn etc."). ev's store is shared by every worker's
// own Eval (see callbackDylibEdn and callDylibEdnFn), since a *value.Fn
// callback may only be invoked by an Eval carrying its own call stack.
func Register(ev *eval.Eval) {
	eval.RegisterProc("&call-dylib-edn", func(args []value.Value) (value.Value, error) {
		return callDylibEdn(args)
	})
	eval.RegisterProc("&callback-dylib-edn", func(args []value.Value) (value.Value, error) {
		return callbackDylibEdn(ev, args)
	})
	eval.RegisterProc("&call-dylib-edn-fn", func(args []value.Value) (value.Value, error) {
		return callDylibEdnFn(ev, args)
	})
}

func splitLibCall(args []value.Value, wantCallback bool) (libName, method string, rest []value.Value, callback *value.Fn, err error) {
	if len(args) < 2 {
		return "", "", nil, nil, fmt.Errorf("ffi: expected at least (lib-name method ...)")
	}
	lib, ok := args[0].(value.Str)
	if !ok {
		return "", "", nil, nil, fmt.Errorf("ffi: lib-name must be a string, got %s", args[0].Type())
	}
	m, ok := args[1].(value.Str)
	if !ok {
		return "", "", nil, nil, fmt.Errorf("ffi: method must be a string, got %s", args[1].Type())
	}
	rest = args[2:]
	if wantCallback {
		if len(rest) == 0 {
			return "", "", nil, nil, fmt.Errorf("ffi: missing trailing callback function")
		}
		cb, ok := rest[len(rest)-1].(*value.Fn)
		if !ok {
			return "", "", nil, nil, fmt.Errorf("ffi: trailing argument must be a fn, got %s", rest[len(rest)-1].Type())
		}
		callback = cb
		rest = rest[:len(rest)-1]
	}
	return string(lib), string(m), rest, callback, nil
}

// callDylibEdn implements `&call-dylib-edn(lib-name, method, ...args)`: a
// synchronous call with no callback (spec §6 bullet 1).
func callDylibEdn(args []value.Value) (value.Value, error) {
	libName, method, callArgs, _, err := splitLibCall(args, false)
	if err != nil {
		return nil, err
	}
	p, err := openLib(libName)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(method)
	if err != nil {
		return nil, fmt.Errorf("ffi: looking up %q in %q: %w", method, libName, err)
	}
	fn, ok := sym.(DylibFn)
	if !ok {
		return nil, fmt.Errorf("ffi: symbol %q in %q has the wrong signature", method, libName)
	}
	externArgs, err := convertArgs(callArgs)
	if err != nil {
		return nil, err
	}
	result, err := fn(externArgs)
	if err != nil {
		return nil, fmt.Errorf("ffi: %s/%s: %w", libName, method, err)
	}
	return FromExtern(result)
}

// callbackDylibEdn implements `&callback-dylib-edn(lib-name, method,
// ...args, callback)`: the library call runs on a worker goroutine, and
// callback is invoked, on that goroutine, once the library call returns
// (spec §6 bullet 2, §9 worker-thread FFI model).
func callbackDylibEdn(ev *eval.Eval, args []value.Value) (value.Value, error) {
	libName, method, callArgs, callback, err := splitLibCall(args, true)
	if err != nil {
		return nil, err
	}
	p, err := openLib(libName)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(method)
	if err != nil {
		return nil, fmt.Errorf("ffi: looking up %q in %q: %w", method, libName, err)
	}
	fn, ok := sym.(DylibFn)
	if !ok {
		return nil, fmt.Errorf("ffi: symbol %q in %q has the wrong signature", method, libName)
	}
	externArgs, err := convertArgs(callArgs)
	if err != nil {
		return nil, err
	}

	atomic.AddInt64(&outstanding, 1)
	go func() {
		defer atomic.AddInt64(&outstanding, -1)
		result, callErr := fn(externArgs)
		workerEv := eval.NewEval(ev.Store)
		var resultVal value.Value
		if callErr != nil {
			resultVal = value.Str(callErr.Error())
		} else {
			resultVal, callErr = FromExtern(result)
			if callErr != nil {
				resultVal = value.Str(callErr.Error())
			}
		}
		// errors from the callback itself have nowhere to propagate to on a
		// detached worker goroutine; they are dropped after conversion, same
		// as the original's worker-thread boundary.
		_, _ = workerEv.CallValue(callback, []value.Value{resultVal})
	}()
	return value.Nil, nil
}

// callDylibEdnFn implements `&call-dylib-edn-fn(lib-name, method, ...args,
// callback)`: the library function receives a host callback it may invoke
// (possibly repeatedly) to re-enter the evaluator before it returns (spec §6
// bullet 3, intended for library-driven loops like an HTTP server).
func callDylibEdnFn(ev *eval.Eval, args []value.Value) (value.Value, error) {
	libName, method, callArgs, callback, err := splitLibCall(args, true)
	if err != nil {
		return nil, err
	}
	p, err := openLib(libName)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(method)
	if err != nil {
		return nil, fmt.Errorf("ffi: looking up %q in %q: %w", method, libName, err)
	}
	fn, ok := sym.(DylibCallbackHostFn)
	if !ok {
		return nil, fmt.Errorf("ffi: symbol %q in %q has the wrong signature", method, libName)
	}
	externArgs, err := convertArgs(callArgs)
	if err != nil {
		return nil, err
	}

	hostCallback := func(cbArgs []ExternValue) (ExternValue, error) {
		atomic.AddInt64(&outstanding, 1)
		defer atomic.AddInt64(&outstanding, -1)
		values := make([]value.Value, len(cbArgs))
		for i, a := range cbArgs {
			v, err := FromExtern(a)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		workerEv := eval.NewEval(ev.Store)
		result, err := workerEv.CallValue(callback, values)
		if err != nil {
			return nil, err
		}
		return ToExtern(result)
	}

	result, err := fn(externArgs, hostCallback)
	if err != nil {
		return nil, fmt.Errorf("ffi: %s/%s: %w", libName, method, err)
	}
	return FromExtern(result)
}
