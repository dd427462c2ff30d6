package eval

import (
	"fmt"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// BindArgs maps a parameter list (spec §4.4, with `&` and `?` in-band
// markers) to an argument list, extending base into a new Scope. force is
// called on every argument value before it is bound — "values marked as
// Thunk are forced" — so that a thunked top-level definition passed as an
// argument is evaluated (and memoized) before the callee ever sees it.
func BindArgs(params []string, args []value.Value, base *value.Scope, force func(value.Value) (value.Value, error)) (*value.Scope, error) {
	var (
		names  []string
		values []value.Value
		ai     int
		opt    bool
	)

	for pi := 0; pi < len(params); pi++ {
		p := params[pi]
		switch p {
		case "?":
			opt = true
			continue
		case "&":
			pi++
			if pi >= len(params) {
				return nil, fmt.Errorf("argument binder: `&` marker with no following parameter")
			}
			rest := params[pi]
			if pi != len(params)-1 {
				return nil, fmt.Errorf("argument binder: no parameters may follow a rest parameter `& %s`", rest)
			}
			var restArgs []value.Value
			for ; ai < len(args); ai++ {
				v, err := force(args[ai])
				if err != nil {
					return nil, err
				}
				restArgs = append(restArgs, v)
			}
			names = append(names, rest)
			values = append(values, value.NewList(restArgs...))
			return base.Extend(names, values), nil
		default:
			if ai >= len(args) {
				if !opt {
					return nil, ArityMismatch(len(params), len(args), false)
				}
				names = append(names, p)
				values = append(values, value.Nil)
				continue
			}
			v, err := force(args[ai])
			if err != nil {
				return nil, err
			}
			names = append(names, p)
			values = append(values, v)
			ai++
		}
	}

	if ai < len(args) {
		return nil, ArityMismatch(len(params), len(args), true)
	}

	return base.Extend(names, values), nil
}

// ArityMismatch builds the error for spec §4.4 rules 4 and 5. tooMany
// selects the message for surplus arguments vs. too few.
func ArityMismatch(nparams, nargs int, tooMany bool) error {
	if tooMany {
		return fmt.Errorf("arity mismatch: too many arguments, expected at most %d, got %d", nparams, nargs)
	}
	return fmt.Errorf("arity mismatch: too few arguments, expected %d, got %d", nparams, nargs)
}
