package diag_test

import (
	"strings"
	"testing"

	"github.com/calcit-lang/calcit-go/lang/diag"
	"github.com/calcit-lang/calcit-go/lang/eval"
	"github.com/calcit-lang/calcit-go/lang/value"
	"github.com/stretchr/testify/assert"
)

func TestFormatIncludesMessageAndFrames(t *testing.T) {
	stack := []eval.Frame{
		{Ns: "app.main", Def: "f", Kind: eval.FrameFn,
			Code: value.NewList(value.NewSymbol("f", "app.main", "test")),
			Args: []value.Value{value.Number(1)}},
		{Ns: "calcit.core", Def: "&+", Kind: eval.FrameProc},
	}
	out := diag.Format("boom", stack)
	assert.Contains(t, out, `$ :message "boom"`)
	assert.Contains(t, out, `$ :def "calcit.core/&+"`)
	assert.Contains(t, out, `$ :def "app.main/f"`)
	assert.Contains(t, out, ":kind :proc")
	assert.Contains(t, out, ":kind :fn")
	// innermost frame (calcit.core/&+, pushed last) is rendered first.
	assert.True(t, indexOf(out, "calcit.core/&+") < indexOf(out, "app.main/f"))
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestWarningsFlushPrintsAndClears(t *testing.T) {
	var w diag.Warnings
	w.AddAll("app.main", "f", []string{"arity mismatch"})
	assert.Equal(t, 1, w.Len())

	var sb strings.Builder
	w.Flush(&sb)
	assert.Contains(t, sb.String(), "arity mismatch")
	assert.Equal(t, 0, w.Len())

	var sb2 strings.Builder
	w.Flush(&sb2)
	assert.Empty(t, sb2.String())
}
