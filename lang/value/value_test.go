package value_test

import (
	"math"
	"testing"

	"github.com/calcit-lang/calcit-go/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPersistence(t *testing.T) {
	l0 := value.EmptyList
	l1 := l0.Append(value.Number(1))
	l2 := l1.Append(value.Number(2))

	assert.Equal(t, 0, l0.Len())
	assert.Equal(t, 1, l1.Len())
	assert.Equal(t, 2, l2.Len())
	assert.Equal(t, value.Number(1), l1.Get(0))
	assert.Equal(t, value.Number(2), l2.Get(1))

	// l1 must remain unaffected by building l2 from it (structural sharing,
	// not in-place mutation).
	assert.Equal(t, 1, l1.Len())
}

func TestListManyElementsCrossesTrieBoundary(t *testing.T) {
	var l = value.EmptyList
	const n = 2000
	for i := 0; i < n; i++ {
		l = l.Append(value.Number(float64(i)))
	}
	require.Equal(t, n, l.Len())
	for i := 0; i < n; i++ {
		assert.Equal(t, value.Number(float64(i)), l.Get(i))
	}
}

func TestMapPersistenceAndOrder(t *testing.T) {
	m0 := value.EmptyMap
	m1 := m0.Put(value.Keyword("b"), value.Number(2))
	m2 := m1.Put(value.Keyword("a"), value.Number(1))

	v, ok := m2.Get(value.Keyword("a"))
	require.True(t, ok)
	assert.Equal(t, value.Number(1), v)

	_, ok = m0.Get(value.Keyword("a"))
	assert.False(t, ok)

	assert.Equal(t, []value.Value{value.Keyword("a"), value.Keyword("b")}, m2.Keys())
}

func TestSetOperations(t *testing.T) {
	s := value.NewSet(value.Number(1), value.Number(2), value.Number(2))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(value.Number(1)))
	assert.False(t, s.Has(value.Number(3)))

	s2 := s.Delete(value.Number(1))
	assert.True(t, s.Has(value.Number(1)), "original set must be unaffected by Delete")
	assert.False(t, s2.Has(value.Number(1)))
}

func TestRecordFieldsSortedAndUnique(t *testing.T) {
	_, err := value.NewRecord("point", []value.Keyword{"x", "y", "x"})
	require.Error(t, err)

	r, err := value.NewRecord("point", []value.Keyword{"y", "x"})
	require.NoError(t, err)
	assert.Equal(t, []value.Keyword{"x", "y"}, r.Fields())

	r2, err := r.With("x", value.Number(3))
	require.NoError(t, err)
	v, ok := r2.Get("x")
	require.True(t, ok)
	assert.Equal(t, value.Number(3), v)

	// original record unaffected (persistent update)
	v0, _ := r.Get("x")
	assert.Equal(t, value.Nil, v0)
}

func TestEqualityIgnoresSymbolResolution(t *testing.T) {
	a := value.NewSymbol("foo", "ns", "def")
	b := a.WithResolution(value.Resolution{Kind: value.ResolvedDef, Ns: "ns", Def: "foo"})
	assert.True(t, value.Equal(a, b))
}

func TestCompareOrdersAcrossVariants(t *testing.T) {
	assert.True(t, value.Compare(value.Nil, value.Number(1)) < 0)
	assert.True(t, value.Compare(value.Number(1), value.Str("x")) < 0)
}

func TestNumberOrderingWithNaN(t *testing.T) {
	nan := value.Number(math.NaN())
	inf := value.Number(math.Inf(1))
	assert.True(t, nan.Cmp(inf) > 0, "NaN must sort greater than +Inf")
	assert.Equal(t, 0, nan.Cmp(nan))
}
