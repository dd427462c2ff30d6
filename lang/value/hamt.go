package value

import "math/bits"

// hamtNode implements a persistent Hash Array Mapped Trie, grounded on
// funvibe-funxy's internal/evaluator/persistent_map.go (bitmap-indexed trie,
// path copying, popcount-addressed slots). It backs both *Map and *Set.
type hamtNode struct {
	bitmap uint32
	// entries holds either hamtEntry (leaf) or *hamtNode (child), indexed by
	// popcount(bitmap & (bit-1)).
	entries []interface{}
}

type hamtEntry struct {
	hash uint32
	key  Value
	val  Value
}

const (
	hamtBits = 5
	hamtMask = 1<<hamtBits - 1
)

func popcount(x uint32) int { return bits.OnesCount32(x) }

func hamtGet(n *hamtNode, hash uint32, key Value, shift uint) (Value, bool) {
	if n == nil {
		return nil, false
	}
	if shift >= 32 {
		for _, e := range n.entries {
			if en, ok := e.(hamtEntry); ok && valuesEqual(en.key, key) {
				return en.val, true
			}
		}
		return nil, false
	}
	idx := (hash >> shift) & hamtMask
	bit := uint32(1) << idx
	if n.bitmap&bit == 0 {
		return nil, false
	}
	pos := popcount(n.bitmap & (bit - 1))
	switch c := n.entries[pos].(type) {
	case hamtEntry:
		if c.hash == hash && valuesEqual(c.key, key) {
			return c.val, true
		}
		return nil, false
	case *hamtNode:
		return hamtGet(c, hash, key, shift+hamtBits)
	}
	return nil, false
}

// hamtPut returns a new root with key bound to val, and whether this added a
// new key (as opposed to overwriting an existing one).
func hamtPut(n *hamtNode, hash uint32, key, val Value, shift uint) (*hamtNode, bool) {
	if n == nil {
		n = &hamtNode{}
	}
	if shift >= 32 {
		cp := &hamtNode{bitmap: n.bitmap, entries: append([]interface{}(nil), n.entries...)}
		for i, e := range cp.entries {
			if en, ok := e.(hamtEntry); ok && valuesEqual(en.key, key) {
				cp.entries[i] = hamtEntry{hash: hash, key: key, val: val}
				return cp, false
			}
		}
		cp.entries = append(cp.entries, hamtEntry{hash: hash, key: key, val: val})
		return cp, true
	}

	idx := (hash >> shift) & hamtMask
	bit := uint32(1) << idx
	cp := &hamtNode{bitmap: n.bitmap, entries: append([]interface{}(nil), n.entries...)}

	if n.bitmap&bit == 0 {
		pos := popcount(cp.bitmap & (bit - 1))
		cp.bitmap |= bit
		cp.entries = append(cp.entries, nil)
		copy(cp.entries[pos+1:], cp.entries[pos:])
		cp.entries[pos] = hamtEntry{hash: hash, key: key, val: val}
		return cp, true
	}

	pos := popcount(n.bitmap & (bit - 1))
	switch existing := cp.entries[pos].(type) {
	case hamtEntry:
		if existing.hash == hash && valuesEqual(existing.key, key) {
			cp.entries[pos] = hamtEntry{hash: hash, key: key, val: val}
			return cp, false
		}
		child, _ := hamtPut(nil, existing.hash, existing.key, existing.val, shift+hamtBits)
		child, added := hamtPut(child, hash, key, val, shift+hamtBits)
		cp.entries[pos] = child
		return cp, added
	case *hamtNode:
		child, added := hamtPut(existing, hash, key, val, shift+hamtBits)
		cp.entries[pos] = child
		return cp, added
	}
	return cp, false
}

func hamtDelete(n *hamtNode, hash uint32, key Value, shift uint) (*hamtNode, bool) {
	if n == nil {
		return n, false
	}
	if shift >= 32 {
		for i, e := range n.entries {
			if en, ok := e.(hamtEntry); ok && valuesEqual(en.key, key) {
				cp := &hamtNode{bitmap: n.bitmap, entries: append([]interface{}(nil), n.entries...)}
				cp.entries = append(cp.entries[:i], cp.entries[i+1:]...)
				return cp, true
			}
		}
		return n, false
	}
	idx := (hash >> shift) & hamtMask
	bit := uint32(1) << idx
	if n.bitmap&bit == 0 {
		return n, false
	}
	pos := popcount(n.bitmap & (bit - 1))
	switch existing := n.entries[pos].(type) {
	case hamtEntry:
		if !valuesEqual(existing.key, key) {
			return n, false
		}
		cp := &hamtNode{bitmap: n.bitmap &^ bit, entries: append([]interface{}(nil), n.entries...)}
		cp.entries = append(cp.entries[:pos], cp.entries[pos+1:]...)
		return cp, true
	case *hamtNode:
		newChild, removed := hamtDelete(existing, hash, key, shift+hamtBits)
		if !removed {
			return n, false
		}
		cp := &hamtNode{bitmap: n.bitmap, entries: append([]interface{}(nil), n.entries...)}
		if len(newChild.entries) == 0 {
			cp.bitmap &^= bit
			cp.entries = append(cp.entries[:pos], cp.entries[pos+1:]...)
		} else if len(newChild.entries) == 1 {
			if e, ok := newChild.entries[0].(hamtEntry); ok {
				cp.entries[pos] = e
			} else {
				cp.entries[pos] = newChild
			}
		} else {
			cp.entries[pos] = newChild
		}
		return cp, true
	}
	return n, false
}

func hamtWalk(n *hamtNode, fn func(k, v Value)) {
	if n == nil {
		return
	}
	for _, e := range n.entries {
		switch c := e.(type) {
		case hamtEntry:
			fn(c.key, c.val)
		case *hamtNode:
			hamtWalk(c, fn)
		}
	}
}

func hashOf(v Value) uint32 {
	if h, ok := v.(Hashable); ok {
		return h.Hash()
	}
	panic("value: unhashable type: " + v.Type())
}
