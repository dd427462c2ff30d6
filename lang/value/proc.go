package value

// Proc names a builtin procedure. The registry mapping a Proc's name to its
// Go implementation lives in lang/eval (the builtin registry, spec §4.6);
// this package only needs the name, so that a Proc value can be held,
// compared and printed like any other value.
type Proc string

var _ Value = Proc("")

func (p Proc) String() string { return "&" + string(p) }
func (p Proc) Type() string   { return "proc" }
