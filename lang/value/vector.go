package value

// The persistent indexed trie backing *List is adapted from the
// bitmap/path-copying technique used by the HAMT in hamt.go (itself grounded
// on funvibe-funxy's internal/evaluator/persistent_map.go), generalized from
// hash-keyed addressing to positional-index addressing — the same "slice the
// key into base-32 digits, copy the path, share the rest" trick Clojure's
// PersistentVector and funxy's PersistentMap both use. No finger-tree or
// persistent-vector library exists anywhere in the retrieval pack (the
// original Rust implementation used the `fingertrees` crate), so this part
// is necessarily standard library only; see DESIGN.md.

const (
	vecBits  = 5
	vecWidth = 1 << vecBits // 32
	vecMask  = vecWidth - 1
)

// vecNode is an interior or leaf node of the trie. At shift == 0 its children
// are Value leaves; otherwise its children are *vecNode.
type vecNode struct {
	children []interface{}
}

func (n *vecNode) clone() *vecNode {
	cp := make([]interface{}, len(n.children))
	copy(cp, n.children)
	return &vecNode{children: cp}
}

// newPath builds a minimal right spine of nodes from the leaf v up to the
// given shift, used when the trie must grow a new rightmost branch.
func newPath(shift uint, v Value) *vecNode {
	if shift == 0 {
		return &vecNode{children: []interface{}{v}}
	}
	return &vecNode{children: []interface{}{newPath(shift-vecBits, v)}}
}

func vecGet(node *vecNode, shift uint, i int) Value {
	for level := shift; level > 0; level -= vecBits {
		node = node.children[(i>>level)&vecMask].(*vecNode)
	}
	return node.children[i&vecMask].(Value)
}

func vecAppend(node *vecNode, shift uint, idx int, v Value) *vecNode {
	if shift == 0 {
		cp := node.clone()
		cp.children = append(cp.children, v)
		return cp
	}
	subidx := (idx >> shift) & vecMask
	cp := node.clone()
	if subidx < len(cp.children) {
		cp.children[subidx] = vecAppend(cp.children[subidx].(*vecNode), shift-vecBits, idx, v)
	} else {
		cp.children = append(cp.children, newPath(shift-vecBits, v))
	}
	return cp
}

func vecSet(node *vecNode, shift uint, idx int, v Value) *vecNode {
	cp := node.clone()
	if shift == 0 {
		cp.children[idx&vecMask] = v
		return cp
	}
	subidx := (idx >> shift) & vecMask
	cp.children[subidx] = vecSet(cp.children[subidx].(*vecNode), shift-vecBits, idx, v)
	return cp
}

func vecWalk(node *vecNode, shift uint, out *[]Value) {
	if shift == 0 {
		for _, c := range node.children {
			*out = append(*out, c.(Value))
		}
		return
	}
	for _, c := range node.children {
		vecWalk(c.(*vecNode), shift-vecBits, out)
	}
}

// List is a persistent, structurally-shared ordered sequence of values,
// indexable in O(log32 n).
type List struct {
	root  *vecNode
	count int
	shift uint
}

var (
	_ Value    = (*List)(nil)
	_ Ordered  = (*List)(nil)
	_ Hashable = (*List)(nil)
)

// EmptyList is the canonical empty list.
var EmptyList = &List{}

// NewList builds a list from the given elements, left to right.
func NewList(elems ...Value) *List {
	l := EmptyList
	for _, e := range elems {
		l = l.Append(e)
	}
	return l
}

func (l *List) Len() int { return l.count }

// Get returns the element at index i, which must satisfy 0 <= i < Len().
func (l *List) Get(i int) Value {
	if i < 0 || i >= l.count {
		panic("value: list index out of range")
	}
	return vecGet(l.root, l.shift, i)
}

// Append returns a new list with v added at the end.
func (l *List) Append(v Value) *List {
	if l.root == nil {
		return &List{root: &vecNode{children: []interface{}{v}}, count: 1, shift: 0}
	}
	capacity := 1 << (l.shift + vecBits)
	if l.count < capacity {
		return &List{root: vecAppend(l.root, l.shift, l.count, v), count: l.count + 1, shift: l.shift}
	}
	newRoot := &vecNode{children: []interface{}{l.root, newPath(l.shift, v)}}
	return &List{root: newRoot, count: l.count + 1, shift: l.shift + vecBits}
}

// Set returns a new list with the element at index i replaced by v.
func (l *List) Set(i int, v Value) *List {
	if i < 0 || i >= l.count {
		panic("value: list index out of range")
	}
	return &List{root: vecSet(l.root, l.shift, i, v), count: l.count, shift: l.shift}
}

// ToSlice returns the list's elements as a plain Go slice, in order.
func (l *List) ToSlice() []Value {
	out := make([]Value, 0, l.count)
	if l.root != nil {
		vecWalk(l.root, l.shift, &out)
	}
	return out
}

// Rest returns a new list without its first element, or EmptyList if l is
// empty.
func (l *List) Rest() *List {
	if l.count == 0 {
		return EmptyList
	}
	return NewList(l.ToSlice()[1:]...)
}

// Concat returns a new list with other's elements appended after l's.
func (l *List) Concat(other *List) *List {
	res := l
	for _, v := range other.ToSlice() {
		res = res.Append(v)
	}
	return res
}

func (l *List) String() string { return printSeq("(", l.ToSlice(), ")") }
func (l *List) Type() string   { return "list" }

func (l *List) Hash() uint32 {
	var h uint32 = 17
	for _, v := range l.ToSlice() {
		h = h*31 + hashOf(v)
	}
	return h
}

func (l *List) Cmp(y Value) int {
	o := y.(*List)
	xs, ys := l.ToSlice(), o.ToSlice()
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	for i := 0; i < n; i++ {
		if c := compareValues(xs[i], ys[i]); c != 0 {
			return c
		}
	}
	return len(xs) - len(ys)
}
