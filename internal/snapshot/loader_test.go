package snapshot_test

import (
	"testing"

	"github.com/calcit-lang/calcit-go/internal/snapshot"
	"github.com/calcit-lang/calcit-go/lang/store"
	"github.com/calcit-lang/calcit-go/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `init-fn: app.main/main!
modules: []
---
ns app.main
  require
    app.util :as util
  defs
    main!
      defn main! ()
        &+ 1 2
`

func TestParseSplitsConfigsAndFiles(t *testing.T) {
	snap, err := snapshot.Parse(sampleSnapshot)
	require.NoError(t, err)
	assert.Equal(t, "app.main/main!", snap.Configs.InitFn)
	assert.Empty(t, snap.Configs.Modules)

	nf, ok := snap.Files["app.main"]
	require.True(t, ok)
	require.Contains(t, nf.Defs, "main!")
}

func TestLoadIntoPopulatesStoreAndImports(t *testing.T) {
	snap, err := snapshot.Parse(sampleSnapshot)
	require.NoError(t, err)

	st := store.New()
	require.NoError(t, snapshot.LoadInto(st, snap))

	require.True(t, st.HasDefCode("app.main", "main!"))
	target, ok := st.LookupNsTargetInImport("app.main", "util")
	require.True(t, ok)
	assert.Equal(t, "app.util", target)
}

func TestParseCodeTreeBuildsNestedLists(t *testing.T) {
	tree, err := snapshot.ParseCodeTree("defn inc (x)\n  &+ x 1\n", "app.main", "inc")
	require.NoError(t, err)
	list, ok := tree.(*value.List)
	require.True(t, ok)
	require.Equal(t, 4, list.Len())

	body, ok := list.Get(3).(*value.List)
	require.True(t, ok)
	assert.Equal(t, 3, body.Len())
}

func TestResolveModulePathRules(t *testing.T) {
	assert.Equal(t, "/home/x/.config/calcit/modules/foo.cirru",
		snapshot.ResolveModulePath("foo.cirru", "/entry", "/home/x"))
	assert.Equal(t, "/entry/mods/compact.cirru",
		snapshot.ResolveModulePath("./mods/", "/entry", "/home/x"))
	assert.Equal(t, "/abs/path.cirru",
		snapshot.ResolveModulePath("/abs/path.cirru", "/entry", "/home/x"))
}
