package eval_test

import (
	"testing"

	"github.com/calcit-lang/calcit-go/lang/eval"
	"github.com/calcit-lang/calcit-go/lang/store"
	"github.com/calcit-lang/calcit-go/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNs = "app.main"

func sym(name string) *value.Symbol { return value.NewSymbol(name, testNs, "test") }

func list(elems ...value.Value) *value.List { return value.NewList(elems...) }

// runTopLevel registers defs' code under ns, then resolves and evaluates
// entry as a fresh call expression in ns, returning its value.
func runTopLevel(t *testing.T, defs map[string]value.Value, entry value.Value) (value.Value, *eval.Eval) {
	t.Helper()
	ev := eval.NewEval(store.New())
	for name, code := range defs {
		ev.Store.WriteDefCode(testNs, name, code)
	}
	resolved, _, err := eval.Preprocess(ev, entry, map[string]bool{}, testNs)
	require.NoError(t, err)
	v, err := ev.Evaluate(resolved, value.NewScope(), testNs)
	require.NoError(t, err)
	return v, ev
}

func TestDefnAndCall(t *testing.T) {
	// (defn inc [x] (&+ x 1))
	incCode := list(sym("defn"), sym("inc"), list(sym("x")),
		list(sym("&+"), sym("x"), value.Number(1)))

	v, _ := runTopLevel(t, map[string]value.Value{"inc": incCode}, list(sym("inc"), value.Number(41)))
	assert.Equal(t, value.Number(42), v)
}

func TestVariadicParams(t *testing.T) {
	// (defn f [& xs] (count xs))
	fCode := list(sym("defn"), sym("f"), list(sym("&"), sym("xs")),
		list(sym("count"), sym("xs")))
	defs := map[string]value.Value{"f": fCode}

	v, _ := runTopLevel(t, defs, list(sym("f"), value.Number(1), value.Number(2), value.Number(3)))
	assert.Equal(t, value.Number(3), v)

	v, _ = runTopLevel(t, defs, list(sym("f")))
	assert.Equal(t, value.Number(0), v)
}

func TestOptionalParam(t *testing.T) {
	// (defn g [x ? y] (if (nil? y) x y))
	gCode := list(sym("defn"), sym("g"), list(sym("x"), sym("?"), sym("y")),
		list(sym("if"), list(sym("nil?"), sym("y")), sym("x"), sym("y")))
	defs := map[string]value.Value{"g": gCode}

	v, _ := runTopLevel(t, defs, list(sym("g"), value.Number(10)))
	assert.Equal(t, value.Number(10), v)

	v, _ = runTopLevel(t, defs, list(sym("g"), value.Number(10), value.Number(20)))
	assert.Equal(t, value.Number(20), v)
}

func TestMacroWhenExpandsAndEvaluates(t *testing.T) {
	// (defmacro when [c & body]
	//   (quasiquote (if (~ c) (do (~@ body)))))
	whenCode := list(sym("defmacro"), sym("when"), list(sym("c"), sym("&"), sym("body")),
		list(sym("quasiquote"),
			list(sym("if"), list(sym("~"), sym("c")),
				list(sym("do"), list(sym("~@"), sym("body"))))))
	defs := map[string]value.Value{"when": whenCode}

	call := list(sym("when"), value.Bool(true), value.Number(1), value.Number(2), value.Number(3))
	v, _ := runTopLevel(t, defs, call)
	assert.Equal(t, value.Number(3), v)
}

func TestMacroexpand1ProducesIfForm(t *testing.T) {
	whenCode := list(sym("defmacro"), sym("when"), list(sym("c"), sym("&"), sym("body")),
		list(sym("quasiquote"),
			list(sym("if"), list(sym("~"), sym("c")),
				list(sym("do"), list(sym("~@"), sym("body"))))))

	quotedCall := list(sym("quote"),
		list(sym("when"), value.Bool(true), value.Number(1), value.Number(2), value.Number(3)))
	expandCall := list(sym("macroexpand-1"), quotedCall)

	v, _ := runTopLevel(t, map[string]value.Value{"when": whenCode}, expandCall)
	expanded, ok := v.(*value.List)
	require.True(t, ok)
	require.Equal(t, 3, expanded.Len())
	// macroexpand-1 performs exactly one expansion step and does not
	// re-preprocess its result, so the head is still the raw "if" symbol
	// rather than a resolved Syntax value.
	headSym, ok := expanded.Get(0).(*value.Symbol)
	require.True(t, ok)
	assert.Equal(t, "if", headSym.Name)
}

func TestTryRecoversFromRaise(t *testing.T) {
	// (try (raise "bad") (defn id [e] e)) -- no anonymous-fn syntax exists,
	// so the handler is expressed as an inline named defn evaluating to a Fn.
	tryExpr := list(sym("try"),
		list(sym("raise"), value.Str("bad")),
		list(sym("defn"), sym("id"), list(sym("e")), sym("e")))

	v, _ := runTopLevel(t, nil, tryExpr)
	assert.Equal(t, value.Str("bad"), v)
}

func TestMutuallyReferringDefsDoNotInfiniteLoop(t *testing.T) {
	// a's body lazily uses b inside a fn, and b's code refers back to a
	// through a `&let` binding, so resolving a walks b, which walks a again.
	// Loading a and calling it succeeds because the provisional Nil written
	// for a during resolution stops that cycle from looping forever (spec §8
	// scenario 6, §9).
	aCode := list(sym("defn"), sym("a"), list(),
		list(sym("&+"), sym("b"), value.Number(1)))
	bCode := list(sym("&let"), list(sym("f"), sym("a")), value.Number(41))

	v, _ := runTopLevel(t, map[string]value.Value{"a": aCode, "b": bCode}, list(sym("a")))
	assert.Equal(t, value.Number(42), v)
}

func TestQuasiquoteIdempotenceWithoutUnquote(t *testing.T) {
	tree := list(value.Number(1), value.Number(2), list(value.Number(3)))
	v, _ := runTopLevel(t, nil, list(sym("quasiquote"), tree))
	// a quasiquoted tree containing no unquote forms anywhere must come back
	// unchanged (spec §8 invariant).
	result, ok := v.(*value.List)
	require.True(t, ok)
	assert.True(t, value.Equal(result, tree))
}

func TestDefatomAndReset(t *testing.T) {
	defatomCode := list(sym("defatom"), sym("counter"), value.Number(0))
	resetExpr := list(sym("reset!"), sym("counter"), value.Number(9))

	v, ev := runTopLevel(t, map[string]value.Value{"counter": defatomCode}, sym("counter"))
	ref, ok := v.(*value.Ref)
	require.True(t, ok)
	assert.Equal(t, value.Number(0), ref.Get())

	resolved, _, err := eval.Preprocess(ev, resetExpr, map[string]bool{}, testNs)
	require.NoError(t, err)
	newVal, err := ev.Evaluate(resolved, value.NewScope(), testNs)
	require.NoError(t, err)
	assert.Equal(t, value.Number(9), newVal)
	assert.Equal(t, value.Number(9), ref.Get())
}

func TestArgumentBinderArityMismatch(t *testing.T) {
	incCode := list(sym("defn"), sym("inc"), list(sym("x")),
		list(sym("&+"), sym("x"), value.Number(1)))
	ev := eval.NewEval(store.New())
	ev.Store.WriteDefCode(testNs, "inc", incCode)

	call := list(sym("inc"), value.Number(1), value.Number(2))
	resolved, _, err := eval.Preprocess(ev, call, map[string]bool{}, testNs)
	require.NoError(t, err)
	_, err = ev.Evaluate(resolved, value.NewScope(), testNs)
	assert.Error(t, err)
}
