package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/calcit-lang/calcit-go/internal/snapshot"
	"github.com/calcit-lang/calcit-go/lang/eval"
	"github.com/calcit-lang/calcit-go/lang/store"
	"github.com/calcit-lang/calcit-go/lang/value"
)

// Macroexpand loads args[0] as a snapshot, fully macroexpands the
// definition named by args[1] ("ns/def") and prints the result (spec §4.9's
// `macroexpand-all`, exposed as a CLI diagnostic the way nenuphar's
// `resolve` command exposes lang/resolver's output).
func (c *Cmd) Macroexpand(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) != 2 {
		return printError(stdio, fmt.Errorf("macroexpand: usage: macroexpand <snapshot> <ns/def>"))
	}
	snap, err := snapshot.Load(args[0])
	if err != nil {
		return printError(stdio, err)
	}
	ns, def, err := splitNsDef(args[1])
	if err != nil {
		return printError(stdio, err)
	}

	st := store.New()
	if err := snapshot.LoadInto(st, snap); err != nil {
		return printError(stdio, err)
	}
	ev := eval.NewEval(st)

	code, ok := st.LookupDefCode(ns, def)
	if !ok {
		return printError(stdio, fmt.Errorf("macroexpand: no such definition %s/%s", ns, def))
	}

	expandCall := value.NewList(
		value.NewSymbol("macroexpand-all", ns, def),
		value.NewList(value.NewSymbol("quote", ns, def), code),
	)
	resolved, _, err := eval.Preprocess(ev, expandCall, map[string]bool{}, ns)
	if err != nil {
		return printError(stdio, err)
	}
	result, err := ev.Evaluate(resolved, value.NewScope(), ns)
	if err != nil {
		return printError(stdio, err)
	}
	fmt.Fprintln(stdio.Stdout, value.ProgramForm(result))
	return nil
}
