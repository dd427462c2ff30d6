// Package diag implements the glue between the evaluator's in-memory
// diagnostics (call stack, warnings) and the two places spec §4.10/§6 say
// they must land on exit: a printed warning list, and a `.calcit-error.cirru`
// failure dump. Grounded on the teacher's own ambient pattern of collecting
// errors into a go/scanner.ErrorList and printing them with
// scanner.PrintError (`lang/scanner` aliased the stdlib type the same way
// before this revision folded that package into this one).
package diag

import (
	"fmt"
	"go/scanner"
	"go/token"
	"io"
)

// Warnings collects non-fatal diagnostics produced during preprocessing and
// evaluation (spec §4.7 rule 6, §7 Resolution-warning). It is backed by
// go/scanner.ErrorList; position information is not meaningful once a form
// is in memory, so every entry uses a zero Position with Filename set to
// "ns/def" for the definition that produced it.
type Warnings struct {
	list scanner.ErrorList
}

// Add records one warning, attributed to ns/def.
func (w *Warnings) Add(ns, def, message string) {
	pos := token.Position{Filename: ns + "/" + def}
	w.list.Add(pos, message)
}

// AddAll copies in every message from msgs, attributing each to ns/def. This
// is how a CLI entry point drains an *eval.Eval's Warnings slice (plain
// strings, with no ns/def attribution of their own) into a Warnings
// collector before flushing.
func (w *Warnings) AddAll(ns, def string, msgs []string) {
	for _, m := range msgs {
		w.Add(ns, def, m)
	}
}

// Len reports how many warnings have been collected.
func (w *Warnings) Len() int { return len(w.list) }

// Flush sorts and prints every collected warning to out, one per line,
// mirroring how nenuphar's maincmd prints scanner errors before exit
// (spec's "Warnings are printed before exit"). It then clears the
// collector so a later Flush on the same Warnings is a no-op.
func (w *Warnings) Flush(out io.Writer) {
	if len(w.list) == 0 {
		return
	}
	w.list.Sort()
	for _, e := range w.list {
		fmt.Fprintln(out, e.Error())
	}
	w.list = nil
}
