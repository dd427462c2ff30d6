// Package value implements the tagged-union value model of the language: the
// runtime representation of every value the evaluator can produce, along with
// structural equality, a total ordering, hashing and the two printing forms
// (program form and friendly form).
package value

import "fmt"

// Value is the interface implemented by every runtime value.
type Value interface {
	// String returns the friendly-form representation of the value.
	String() string
	// Type returns a short string naming the value's variant, e.g. "number" or
	// "list". It is also the value returned by the language's `type-of`.
	Type() string
}

// Hashable is implemented by values that may be used as set members or map
// keys. Hash must be consistent with Equal: equal values hash equally.
type Hashable interface {
	Value
	Hash() uint32
}

// Ordered is implemented by values that participate in the total ordering
// defined over all variants (used by sets and sorted maps, and to give
// deterministic printing order). Cmp is only ever called by this package's
// Compare function with two values of identical Type(); cross-type ordering
// is handled by Compare itself via variant rank.
type Ordered interface {
	Value
	Cmp(y Value) int
}

// Truthy reports whether v is considered true in boolean contexts. Only Nil
// and Bool(false) are falsy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case NilType:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// ProgramForm renders v the way it would need to appear in source to be read
// back by the parser (e.g. strings are quoted).
func ProgramForm(v Value) string {
	if p, ok := v.(programFormer); ok {
		return p.ProgramForm()
	}
	return v.String()
}

type programFormer interface {
	ProgramForm() string
}

// variantRank totally orders the variants themselves, used as the first key
// when comparing values of different types (see Compare).
func variantRank(v Value) int {
	switch v.(type) {
	case NilType:
		return 0
	case Bool:
		return 1
	case Number:
		return 2
	case Str:
		return 3
	case Keyword:
		return 4
	case *Symbol:
		return 5
	case *List:
		return 6
	case *Map:
		return 7
	case *Set:
		return 8
	case *Record:
		return 9
	case Proc:
		return 10
	case Syntax:
		return 11
	case *Fn:
		return 12
	case *Macro:
		return 13
	case *Thunk:
		return 14
	case Recur:
		return 15
	case Tuple:
		return 16
	case *Ref:
		return 17
	default:
		panic(fmt.Sprintf("value: unknown variant %T", v))
	}
}
