package maincmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"

	"github.com/calcit-lang/calcit-go/internal/snapshot"
	"github.com/calcit-lang/calcit-go/lang/diag"
	"github.com/calcit-lang/calcit-go/lang/eval"
	"github.com/calcit-lang/calcit-go/lang/ffi"
	"github.com/calcit-lang/calcit-go/lang/store"
	"github.com/calcit-lang/calcit-go/lang/value"
)

// runEnv holds the environment overrides spec §6's CLI accepts on top of
// its positional/flag surface: CALCIT_MODULES_DIR replaces $HOME as the
// directory under which internal/snapshot's default resolution tier looks
// for `.config/calcit/modules/` (that suffix is still appended, so the
// variable does not name the modules folder itself), and CALCIT_MAX_STEPS
// bounds the macro/tail-recur loops (spec §8, eval.Eval.MaxSteps) instead of
// leaving them unbounded.
type runEnv struct {
	ModulesDir string `env:"CALCIT_MODULES_DIR"`
	MaxSteps   int    `env:"CALCIT_MAX_STEPS"`
}

// Run loads a snapshot and evaluates its entry definition (spec §6 "Program
// input", §9). args[0], if present, is the entry path; otherwise
// snapshot.DefaultEntryFile is used (spec's `input` positional default).
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	entryPath := snapshot.DefaultEntryFile
	if len(args) > 0 {
		entryPath = args[0]
	}

	var cfg runEnv
	if err := env.Parse(&cfg); err != nil {
		return printError(stdio, fmt.Errorf("reading environment: %w", err))
	}

	home := cfg.ModulesDir
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return printError(stdio, fmt.Errorf("resolving $HOME: %w", err))
		}
		home = h
	}

	entryAbs, err := filepath.Abs(entryPath)
	if err != nil {
		return printError(stdio, err)
	}
	snap, err := snapshot.LoadWithModules(entryAbs, home)
	if err != nil {
		return printError(stdio, err)
	}

	st := store.New()
	if err := snapshot.LoadInto(st, snap); err != nil {
		return printError(stdio, err)
	}

	ev := eval.NewEval(st)
	ev.MaxSteps = cfg.MaxSteps
	ffi.Register(ev)

	result, runErr := runEntry(ev, snap.Configs.InitFn)

	var warnings diag.Warnings
	warnings.AddAll("", "", ev.Warnings)
	warnings.Flush(stdio.Stderr)

	if runErr != nil {
		fmt.Fprintf(stdio.Stderr, "failed, %s\n", runErr)
		stack := []eval.Frame(nil)
		if ce, ok := runErr.(*eval.CalcitErr); ok {
			stack = ce.Stack
		}
		if dumpErr := diag.WriteFailureDump(runErr.Error(), stack); dumpErr != nil {
			fmt.Fprintf(stdio.Stderr, "failed to write %s: %s\n", diag.DumpFile, dumpErr)
		} else {
			fmt.Fprintf(stdio.Stderr, "run `cat %s` to read stack details.\n", diag.DumpFile)
		}
		return runErr
	}

	fmt.Fprintf(stdio.Stdout, "result: %s\n", value.ProgramForm(result))
	return nil
}

// runEntry evaluates initFn ("ns/def") to a function value and calls it
// with no arguments, mirroring the reference CLI's evaluate-then-run_fn
// sequence (original_source/src/main.rs).
func runEntry(ev *eval.Eval, initFn string) (value.Value, error) {
	ns, def, err := splitNsDef(initFn)
	if err != nil {
		return nil, err
	}
	code, ok := ev.Store.LookupDefCode(ns, def)
	if !ok {
		return nil, fmt.Errorf("invalid entry: %s", initFn)
	}
	resolved, _, err := eval.Preprocess(ev, code, map[string]bool{}, ns)
	if err != nil {
		return nil, err
	}
	entryVal, err := ev.Evaluate(resolved, value.NewScope(), ns)
	if err != nil {
		return nil, err
	}
	fn, ok := entryVal.(*value.Fn)
	if !ok {
		return nil, fmt.Errorf("expected function entry, got: %s", value.TypeOf(entryVal))
	}
	return ev.CallValue(fn, nil)
}

func splitNsDef(s string) (ns, def string, err error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return s[:i], s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("invalid ns/def format: %s", strconv.Quote(s))
}
