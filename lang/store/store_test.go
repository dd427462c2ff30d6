package store_test

import (
	"testing"

	"github.com/calcit-lang/calcit-go/lang/store"
	"github.com/calcit-lang/calcit-go/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLookupDefCode(t *testing.T) {
	s := store.New()
	assert.False(t, s.HasDefCode("app.core", "inc"))

	s.WriteDefCode("app.core", "inc", value.Number(1))
	require.True(t, s.HasDefCode("app.core", "inc"))

	v, ok := s.LookupDefCode("app.core", "inc")
	require.True(t, ok)
	assert.Equal(t, value.Number(1), v)
}

func TestEvaledDefOverwritePermitted(t *testing.T) {
	s := store.New()
	s.WriteEvaledDef("app.core", "a", value.Nil)
	v, ok := s.LookupEvaledDef("app.core", "a")
	require.True(t, ok)
	assert.Equal(t, value.Nil, v)

	s.WriteEvaledDef("app.core", "a", value.Number(42))
	v, ok = s.LookupEvaledDef("app.core", "a")
	require.True(t, ok)
	assert.Equal(t, value.Number(42), v)
}

func TestImportLookupTiers(t *testing.T) {
	s := store.New()
	s.SetImportRules("app.core",
		map[string]string{"str": "app.string"},
		map[string]store.ImportRule{"helper": {Ns: "app.util", Def: "helper"}},
		"app.default",
	)

	target, ok := s.LookupNsTargetInImport("app.core", "str")
	require.True(t, ok)
	assert.Equal(t, "app.string", target)

	rule, ok := s.LookupDefTargetInImport("app.core", "helper")
	require.True(t, ok)
	assert.Equal(t, "app.util", rule.Ns)

	rule, ok = s.LookupDefaultTargetInImport("app.core", "whatever")
	require.True(t, ok)
	assert.Equal(t, "app.default", rule.Ns)
	assert.Equal(t, "whatever", rule.Def)

	_, ok = s.LookupNsTargetInImport("app.core", "nope")
	assert.False(t, ok)
}
