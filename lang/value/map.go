package value

import "sort"

// Map is a persistent, structurally-shared mapping from Value to Value,
// backed by a hamtNode (see hamt.go). Iteration order (Each, Keys) is the
// value ordering (Compare) over keys, not insertion or hash order, so that
// printing and the equality/ordering testable properties stay deterministic
// — "ordered mapping" per spec §3.
type Map struct {
	root  *hamtNode
	count int
}

var (
	_ Value    = (*Map)(nil)
	_ Hashable = (*Map)(nil)
)

// EmptyMap is the canonical empty map.
var EmptyMap = &Map{}

// NewMap builds a map from alternating key, value, key, value... Go values.
func NewMap(pairs ...Value) *Map {
	if len(pairs)%2 != 0 {
		panic("value: NewMap requires an even number of arguments")
	}
	m := EmptyMap
	for i := 0; i < len(pairs); i += 2 {
		m = m.Put(pairs[i], pairs[i+1])
	}
	return m
}

func (m *Map) Len() int { return m.count }

func (m *Map) Get(k Value) (Value, bool) {
	return hamtGet(m.root, hashOf(k), k, 0)
}

// Put returns a new map with k bound to v.
func (m *Map) Put(k, v Value) *Map {
	newRoot, added := hamtPut(m.root, hashOf(k), k, v, 0)
	n := m.count
	if added {
		n++
	}
	return &Map{root: newRoot, count: n}
}

// Delete returns a new map with k removed, or m unchanged if absent.
func (m *Map) Delete(k Value) *Map {
	newRoot, removed := hamtDelete(m.root, hashOf(k), k, 0)
	if !removed {
		return m
	}
	return &Map{root: newRoot, count: m.count - 1}
}

// Each calls fn for every key/value pair, in ascending key order.
func (m *Map) Each(fn func(k, v Value)) {
	for _, kv := range m.sortedPairs() {
		fn(kv[0], kv[1])
	}
}

func (m *Map) sortedPairs() [][2]Value {
	pairs := make([][2]Value, 0, m.count)
	hamtWalk(m.root, func(k, v Value) { pairs = append(pairs, [2]Value{k, v}) })
	sort.Slice(pairs, func(i, j int) bool { return compareValues(pairs[i][0], pairs[j][0]) < 0 })
	return pairs
}

// Keys returns the map's keys in ascending order.
func (m *Map) Keys() []Value {
	out := make([]Value, 0, m.count)
	for _, kv := range m.sortedPairs() {
		out = append(out, kv[0])
	}
	return out
}

func (m *Map) String() string {
	var flat []Value
	for _, kv := range m.sortedPairs() {
		flat = append(flat, kv[0], kv[1])
	}
	return printSeq("{", flat, "}")
}

func (m *Map) Type() string { return "map" }

func (m *Map) Hash() uint32 {
	var h uint32 = 19
	for _, kv := range m.sortedPairs() {
		h = h*31 + hashOf(kv[0])
		h = h*31 + hashOf(kv[1])
	}
	return h
}
