// Package eval implements the preprocessor/resolver, the evaluator, function
// application (including tail-recur), macro expansion, the quasiquote
// engine, the argument binder and the builtin registry (spec §4.3–§4.9,
// L3–L8). These live in one package because, exactly as the teacher's own
// machine package fuses its VM loop with frames, call stack and builtin
// value behavior, the preprocessor's macro expansion must invoke the
// evaluator and the evaluator's try/eval/macroexpand* syntax handlers must
// invoke the preprocessor — splitting them apart would need a public
// indirection purely to dodge an import cycle the teacher does not
// introduce for the same reason.
package eval

import (
	"fmt"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// FrameKind identifies what kind of callable pushed a Frame (spec §3 Call
// stack).
type FrameKind uint8

const (
	FrameFn FrameKind = iota
	FrameProc
	FrameMacro
	FrameSyntax
)

func (k FrameKind) String() string {
	switch k {
	case FrameFn:
		return "fn"
	case FrameProc:
		return "proc"
	case FrameMacro:
		return "macro"
	case FrameSyntax:
		return "syntax"
	default:
		return "?"
	}
}

// Frame is a diagnostic call-stack entry (spec §3, §4.3). Purely
// informational: it has no effect on control flow.
type Frame struct {
	Ns   string
	Def  string
	Kind FrameKind
	Code value.Value // the form that produced this call, if available
	Args []value.Value
}

func (f Frame) String() string {
	return fmt.Sprintf("%s/%s (%s)", f.Ns, f.Def, f.Kind)
}

// CallStack is a last-in, first-out sequence of Frames (spec §4.3). It is
// not safe for concurrent use by multiple goroutines — like the teacher's
// Thread.callStack, a CallStack is logically thread-local; the FFI bridge
// (lang/ffi) gives each worker its own.
type CallStack struct {
	frames []Frame
}

// NewCallStack returns an empty call stack.
func NewCallStack() *CallStack { return &CallStack{} }

// Push adds a frame to the top of the stack.
func (c *CallStack) Push(f Frame) { c.frames = append(c.frames, f) }

// Pop removes the top frame. It panics if the stack is empty, since Push/Pop
// calls are always paired by the evaluator.
func (c *CallStack) Pop() {
	c.frames = c.frames[:len(c.frames)-1]
}

// Len reports the current stack depth.
func (c *CallStack) Len() int { return len(c.frames) }

// Snapshot returns an ordered copy of the current frames, outermost first,
// for use in error reporting and the `.calcit-error.cirru` dump (spec §4.3,
// §6).
func (c *CallStack) Snapshot() []Frame {
	cp := make([]Frame, len(c.frames))
	copy(cp, c.frames)
	return cp
}
