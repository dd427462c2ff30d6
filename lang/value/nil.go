package value

// NilType is the type of Nil. It is represented as an empty struct type
// rather than a pointer so that the zero value is always valid and Nil can be
// used as a map key.
type NilType struct{}

// Nil is the single value of NilType.
var Nil = NilType{}

var _ Value = Nil

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }
func (NilType) Hash() uint32   { return 0 }
func (NilType) Cmp(y Value) int {
	if _, ok := y.(NilType); ok {
		return 0
	}
	panic("value: Cmp called with mismatched types")
}

var (
	_ Hashable = Nil
	_ Ordered  = Nil
)
