package maincmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/mna/mainer"

	"github.com/calcit-lang/calcit-go/internal/snapshot"
)

// ParseSnapshot loads args[0] as a snapshot and lists its namespaces and
// definitions, exercising internal/snapshot the way nenuphar's `parse`
// command exercises lang/parser (print the result of one compiler phase).
func (c *Cmd) ParseSnapshot(ctx context.Context, stdio mainer.Stdio, args []string) error {
	if len(args) == 0 {
		return printError(stdio, fmt.Errorf("parsesnapshot: a snapshot path is required"))
	}
	snap, err := snapshot.Load(args[0])
	if err != nil {
		return printError(stdio, err)
	}

	nsNames := make([]string, 0, len(snap.Files))
	for ns := range snap.Files {
		nsNames = append(nsNames, ns)
	}
	sort.Strings(nsNames)

	fmt.Fprintf(stdio.Stdout, "init-fn: %s\n", snap.Configs.InitFn)
	for _, ns := range nsNames {
		nf := snap.Files[ns]
		defNames := make([]string, 0, len(nf.Defs))
		for name := range nf.Defs {
			defNames = append(defNames, name)
		}
		sort.Strings(defNames)
		fmt.Fprintf(stdio.Stdout, "%s\n", ns)
		for _, name := range defNames {
			fmt.Fprintf(stdio.Stdout, "  %s\n", name)
		}
	}
	return nil
}
