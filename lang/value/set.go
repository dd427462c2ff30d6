package value

// Set is a persistent, structurally-shared set of values, backed by the same
// hamtNode as Map (keys map to Nil).
type Set struct {
	m *Map
}

var (
	_ Value    = (*Set)(nil)
	_ Hashable = (*Set)(nil)
)

// EmptySet is the canonical empty set.
var EmptySet = &Set{m: EmptyMap}

// NewSet builds a set from the given elements.
func NewSet(elems ...Value) *Set {
	s := EmptySet
	for _, e := range elems {
		s = s.Add(e)
	}
	return s
}

func (s *Set) Len() int { return s.m.Len() }

func (s *Set) Has(v Value) bool {
	_, ok := s.m.Get(v)
	return ok
}

func (s *Set) Add(v Value) *Set    { return &Set{m: s.m.Put(v, Nil)} }
func (s *Set) Delete(v Value) *Set { return &Set{m: s.m.Delete(v)} }

// Each calls fn for every element, in ascending order.
func (s *Set) Each(fn func(v Value)) {
	s.m.Each(func(k, _ Value) { fn(k) })
}

func (s *Set) ToSlice() []Value { return s.m.Keys() }

func (s *Set) String() string { return printSeq("#{", s.ToSlice(), "}") }
func (s *Set) Type() string   { return "set" }

func (s *Set) Hash() uint32 {
	var h uint32 = 23
	for _, v := range s.ToSlice() {
		h += hashOf(v) // order-independent combination, unlike Map/List
	}
	return h
}
