package value

// Scope is a persistent mapping from local names to values, extended
// lexically (spec §3). It is a linked chain of frames so that `let` and
// function binding can extend a scope in O(1) without touching the parent,
// while lookups walk outward to the root.
type Scope struct {
	parent *Scope
	names  []string
	values []Value
}

// NewScope returns an empty top-level scope.
func NewScope() *Scope { return &Scope{} }

// Extend returns a new scope that adds the given bindings in front of s.
// Callers should not mutate the names/values slices afterwards.
func (s *Scope) Extend(names []string, values []Value) *Scope {
	return &Scope{parent: s, names: names, values: values}
}

// ExtendOne is a convenience for binding a single name.
func (s *Scope) ExtendOne(name string, v Value) *Scope {
	return s.Extend([]string{name}, []Value{v})
}

// Lookup returns the value bound to name, searching outward from s.
func (s *Scope) Lookup(name string) (Value, bool) {
	for f := s; f != nil; f = f.parent {
		for i, n := range f.names {
			if n == name {
				return f.values[i], true
			}
		}
	}
	return nil, false
}

// Has reports whether name is bound anywhere in the chain.
func (s *Scope) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}
