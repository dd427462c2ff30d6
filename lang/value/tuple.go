package value

// Tuple is a fixed-size, immutable pair-or-more of values, a first-class
// runtime value per spec §3.
type Tuple []Value

var _ Value = Tuple(nil)

func (t Tuple) String() string { return printSeq("(&tuple ", []Value(t), ")") }
func (t Tuple) Type() string   { return "tuple" }
