package diag

import (
	"fmt"
	"os"
	"strings"

	"github.com/calcit-lang/calcit-go/lang/eval"
	"github.com/calcit-lang/calcit-go/lang/value"
)

// DumpFile is the fixed failure-dump path spec §6 names.
const DumpFile = ".calcit-error.cirru"

// WriteFailureDump renders message and stack as `{message, stack: [{def,
// code, args, kind}, …]}` in the host's indentation-structured
// object-notation and writes it to DumpFile (spec §4.10, §6 "Failure
// dump"). Grounded on call_stack.rs's display_stack: one map per frame
// (innermost first), def as "ns/def", code as the frame's program form (nil
// when a builtin frame carries none), args as the frame's evaluated
// arguments, kind as the frame's call kind.
func WriteFailureDump(message string, stack []eval.Frame) error {
	return os.WriteFile(DumpFile, []byte(Format(message, stack)), 0o644)
}

// Format builds the dump's text without touching the filesystem, so a test
// can assert on its shape.
func Format(message string, stack []eval.Frame) string {
	var b strings.Builder
	b.WriteString("{}\n")
	writeEntry(&b, 1, "message", quote(message))
	b.WriteString(indent(1) + "$ :stack\n")
	for i := len(stack) - 1; i >= 0; i-- {
		writeFrame(&b, 2, stack[i])
	}
	return b.String()
}

func writeFrame(b *strings.Builder, depth int, f eval.Frame) {
	b.WriteString(indent(depth) + "$ {}\n")
	writeEntry(b, depth+1, "def", quote(f.Ns+"/"+f.Def))
	if f.Code != nil {
		writeEntry(b, depth+1, "code", quote(value.ProgramForm(f.Code)))
	} else {
		writeEntry(b, depth+1, "code", "nil")
	}
	b.WriteString(indent(depth+1) + "$ :args\n")
	b.WriteString(indent(depth+2) + "$ []\n")
	for _, a := range f.Args {
		b.WriteString(indent(depth+3) + "$ " + quote(value.ProgramForm(a)) + "\n")
	}
	writeEntry(b, depth+1, "kind", ":"+f.Kind.String())
}

func writeEntry(b *strings.Builder, depth int, key, val string) {
	b.WriteString(fmt.Sprintf("%s$ :%s %s\n", indent(depth), key, val))
}

func indent(depth int) string { return strings.Repeat("  ", depth) }

func quote(s string) string {
	return "\"" + strings.NewReplacer("\\", "\\\\", "\"", "\\\"").Replace(s) + "\""
}
