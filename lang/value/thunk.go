package value

// Thunk is a lazily-evaluated, memoized top-level binding (spec §3). Code is
// the original parsed form; Evaluated transitions from nil to a non-nil
// Value exactly once per binding and then only monotonically — callers
// should not mutate an already-evaluated Thunk's Value, only read it. The
// evaluator (lang/eval's forceThunk) sets Evaluated directly, without a
// lock; the program store's mutex guards only the store's own write of the
// memoized value.
type Thunk struct {
	Code      Value
	Ns        string // namespace Code should be evaluated in, once forced
	Evaluated Value  // nil means not yet evaluated
}

var _ Value = (*Thunk)(nil)

// NewThunk returns an unevaluated thunk wrapping code, to be evaluated in ns
// when forced.
func NewThunk(code Value, ns string) *Thunk { return &Thunk{Code: code, Ns: ns} }

func (t *Thunk) String() string {
	if t.Evaluated != nil {
		return t.Evaluated.String()
	}
	return "(&thunk)"
}
func (t *Thunk) Type() string {
	if t.Evaluated != nil {
		return t.Evaluated.Type()
	}
	return "thunk"
}

// IsEvaluated reports whether the thunk has been forced.
func (t *Thunk) IsEvaluated() bool { return t.Evaluated != nil }
