package ffi_test

import (
	"testing"

	"github.com/calcit-lang/calcit-go/lang/ffi"
	"github.com/calcit-lang/calcit-go/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToExternRoundTripsPrimitivesAndCollections(t *testing.T) {
	in := value.NewMap(
		value.Str("count"), value.Number(2),
		value.Keyword("tag"), value.NewList(value.Bool(true), value.Nil),
	)
	ext, err := ffi.ToExtern(in)
	require.NoError(t, err)

	back, err := ffi.FromExtern(ext)
	require.NoError(t, err)

	m, ok := back.(*value.Map)
	require.True(t, ok)
	countV, ok := m.Get(value.Str("count"))
	require.True(t, ok)
	assert.Equal(t, value.Number(2), countV)
}

func TestToExternRejectsFn(t *testing.T) {
	fn := value.NewFn("f", "app.main", value.NewScope(), value.NewList(), value.NewList())
	_, err := ffi.ToExtern(fn)
	assert.Error(t, err)
}

func TestFromExternRejectsUnknownGoType(t *testing.T) {
	_, err := ffi.FromExtern(complex64(1))
	assert.Error(t, err)
}
