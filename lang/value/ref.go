package value

import "sync/atomic"

// Ref is an opaque reference cell (a state cell backing `defatom`/`reset!`,
// spec §3, §5). Single-writer semantics are enforced by storing the current
// value behind an atomic.Pointer, matching the teacher's own
// atomic-primitive-based thread-safety style (machine.Thread.cancelled is an
// atomic.Bool) rather than a mutex, since a Ref only ever needs a single
// swap, not a critical section.
type Ref struct {
	Name string
	cell atomic.Pointer[Value]
}

var _ Value = (*Ref)(nil)

// NewRef returns a new Ref holding the given initial value.
func NewRef(name string, initial Value) *Ref {
	r := &Ref{Name: name}
	r.cell.Store(&initial)
	return r
}

// Get returns the ref's current value.
func (r *Ref) Get() Value { return *r.cell.Load() }

// Reset atomically replaces the ref's value and returns it.
func (r *Ref) Reset(v Value) Value {
	r.cell.Store(&v)
	return v
}

func (r *Ref) String() string { return "(&ref " + r.Name + ")" }
func (r *Ref) Type() string   { return "ref" }
