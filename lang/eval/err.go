package eval

import "fmt"

// CalcitErr is the error type returned by every evaluation operation (spec
// §4.10). It carries a frozen snapshot of the call stack at the point the
// error was raised — re-wrapping an error that is already a *CalcitErr is a
// no-op, mirroring the teacher's machine.Call: "if _, ok :=
// err.(*EvalError); !ok { err = thread.evalError(err) }".
type CalcitErr struct {
	Msg   string
	Stack []Frame
}

func (e *CalcitErr) Error() string { return e.Msg }

// WrapErr turns err into a *CalcitErr carrying stack's current snapshot,
// unless err already is one (in which case it is returned unchanged so the
// original, deeper snapshot is preserved).
func WrapErr(err error, stack *CallStack) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CalcitErr); ok {
		return ce
	}
	return &CalcitErr{Msg: err.Error(), Stack: stack.Snapshot()}
}

// Errorf builds a *CalcitErr directly, with stack's current snapshot.
func Errorf(stack *CallStack, format string, args ...interface{}) *CalcitErr {
	return &CalcitErr{Msg: fmt.Sprintf(format, args...), Stack: stack.Snapshot()}
}
