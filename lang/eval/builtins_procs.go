package eval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// ProcFn is a pure builtin procedure: it receives its already-evaluated
// arguments and returns a value or a failure (spec §4.6).
type ProcFn func(args []value.Value) (value.Value, error)

// procs is the fixed proc table, named after the original implementation's
// is_proc_name/handle_proc match in builtins.rs: `&+`, `&-`, `&{}`, `nth`,
// `append`… keep the `&`-prefixed spelling for the core arithmetic/logic
// procs that the original reserves an unprefixed name for at the language
// level (e.g. `+` is a macro over `&+` there; only the builtin itself is in
// scope here).
var procs = map[string]ProcFn{
	"type-of":        procTypeOf,
	"recur":          procRecur,
	"format-to-lisp": procFormatToLisp,
	"echo":           procEcho,
	"echo-values":    procEchoValues,
	"raise":          procRaise,
	"&=":             procEqual,
	"&<":             procLess,
	"&>":             procGreater,
	"not":            procNot,
	"nil?":           procNilQuestion,
	"&+":             procAdd,
	"&-":             procSub,
	"&*":             procMul,
	"&/":             procDiv,
	"round":          procRound,
	"fractional":     procFractional,
	"&str-concat":    procStrConcat,
	"[]":             procNewList,
	"&{}":            procNewMap,
	"#{}":            procNewSet,
	"empty?":         procEmptyQuestion,
	"count":          procCount,
	"nth":            procNth,
	"slice":          procSlice,
	"append":         procAppend,
	"prepend":        procPrepend,
	"rest":           procRest,
	"butlast":        procButlast,
	"get":            procGet,
	"assoc":          procAssoc,
	"dissoc":         procDissoc,
	"keys":           procKeys,
	"contains?":      procContainsQuestion,
	"do":             procDo,
}

// LookupProc reports whether name is a registered builtin proc.
func LookupProc(name string) (ProcFn, bool) {
	fn, ok := procs[name]
	return fn, ok
}

// RegisterProc adds an externally supplied proc to the table (spec §4.6:
// "external code may register additional procs" — this is the hook the FFI
// bridge uses to inject `&call-dylib-edn` and friends). It panics on a name
// collision with a syntax, since that would silently break the "proc and
// syntax names are disjoint" invariant. A name that is already a proc is
// replaced by fn.
func RegisterProc(name string, fn ProcFn) {
	if _, ok := value.LookupSyntax(name); ok {
		panic(fmt.Sprintf("eval: cannot register proc %q, name is already a syntax", name))
	}
	procs[name] = fn
}

func arity(name string, args []value.Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func asNumber(name string, v value.Value) (float64, error) {
	n, ok := v.(value.Number)
	if !ok {
		return 0, fmt.Errorf("%s: expected a number, got %s", name, v.Type())
	}
	return float64(n), nil
}

func procTypeOf(args []value.Value) (value.Value, error) {
	if err := arity("type-of", args, 1); err != nil {
		return nil, err
	}
	return value.Keyword(value.TypeOf(args[0])), nil
}

func procRecur(args []value.Value) (value.Value, error) {
	return value.Recur{Args: value.NewList(args...)}, nil
}

func procFormatToLisp(args []value.Value) (value.Value, error) {
	if err := arity("format-to-lisp", args, 1); err != nil {
		return nil, err
	}
	return value.Str(value.ProgramForm(args[0])), nil
}

func procEcho(args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Println(strings.Join(parts, " "))
	return value.Nil, nil
}

func procEchoValues(args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.ProgramForm(a)
	}
	fmt.Println(strings.Join(parts, " "))
	return value.Nil, nil
}

func procRaise(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("raise: missing message")
	}
	msg, ok := args[0].(value.Str)
	if !ok {
		return nil, fmt.Errorf("raise: expected a string message, got %s", args[0].Type())
	}
	return nil, fmt.Errorf("%s", string(msg))
}

func procEqual(args []value.Value) (value.Value, error) {
	if err := arity("&=", args, 2); err != nil {
		return nil, err
	}
	return value.Bool(value.Equal(args[0], args[1])), nil
}

func procLess(args []value.Value) (value.Value, error) {
	if err := arity("&<", args, 2); err != nil {
		return nil, err
	}
	return value.Bool(value.Compare(args[0], args[1]) < 0), nil
}

func procGreater(args []value.Value) (value.Value, error) {
	if err := arity("&>", args, 2); err != nil {
		return nil, err
	}
	return value.Bool(value.Compare(args[0], args[1]) > 0), nil
}

func procNot(args []value.Value) (value.Value, error) {
	if err := arity("not", args, 1); err != nil {
		return nil, err
	}
	return value.Bool(!value.Truthy(args[0])), nil
}

func procNilQuestion(args []value.Value) (value.Value, error) {
	if err := arity("nil?", args, 1); err != nil {
		return nil, err
	}
	_, isNil := args[0].(value.NilType)
	return value.Bool(isNil), nil
}

func procAdd(args []value.Value) (value.Value, error) {
	sum := 0.0
	for _, a := range args {
		n, err := asNumber("&+", a)
		if err != nil {
			return nil, err
		}
		sum += n
	}
	return value.Number(sum), nil
}

func procSub(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("&-: expected at least 1 argument, got 0")
	}
	first, err := asNumber("&-", args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return value.Number(-first), nil
	}
	for _, a := range args[1:] {
		n, err := asNumber("&-", a)
		if err != nil {
			return nil, err
		}
		first -= n
	}
	return value.Number(first), nil
}

func procMul(args []value.Value) (value.Value, error) {
	prod := 1.0
	for _, a := range args {
		n, err := asNumber("&*", a)
		if err != nil {
			return nil, err
		}
		prod *= n
	}
	return value.Number(prod), nil
}

func procDiv(args []value.Value) (value.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("&/: expected at least 2 arguments, got %d", len(args))
	}
	first, err := asNumber("&/", args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		n, err := asNumber("&/", a)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("&/: division by zero")
		}
		first /= n
	}
	return value.Number(first), nil
}

func procRound(args []value.Value) (value.Value, error) {
	if err := arity("round", args, 1); err != nil {
		return nil, err
	}
	n, err := asNumber("round", args[0])
	if err != nil {
		return nil, err
	}
	return value.Number(math.Round(n)), nil
}

func procFractional(args []value.Value) (value.Value, error) {
	if err := arity("fractional", args, 1); err != nil {
		return nil, err
	}
	n, err := asNumber("fractional", args[0])
	if err != nil {
		return nil, err
	}
	_, frac := math.Modf(n)
	return value.Number(frac), nil
}

func procStrConcat(args []value.Value) (value.Value, error) {
	var b strings.Builder
	for _, a := range args {
		s, ok := a.(value.Str)
		if !ok {
			return nil, fmt.Errorf("&str-concat: expected a string, got %s", a.Type())
		}
		b.WriteString(string(s))
	}
	return value.Str(b.String()), nil
}

func procNewList(args []value.Value) (value.Value, error) {
	return value.NewList(args...), nil
}

func procNewMap(args []value.Value) (value.Value, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("&{}: expected an even number of arguments, got %d", len(args))
	}
	return value.NewMap(args...), nil
}

func procNewSet(args []value.Value) (value.Value, error) {
	return value.NewSet(args...), nil
}

func asList(name string, v value.Value) (*value.List, error) {
	l, ok := v.(*value.List)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %s", name, v.Type())
	}
	return l, nil
}

func procEmptyQuestion(args []value.Value) (value.Value, error) {
	if err := arity("empty?", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *value.List:
		return value.Bool(v.Len() == 0), nil
	case *value.Map:
		return value.Bool(v.Len() == 0), nil
	case *value.Set:
		return value.Bool(v.Len() == 0), nil
	case value.Str:
		return value.Bool(len(v) == 0), nil
	default:
		return nil, fmt.Errorf("empty?: unsupported type %s", v.Type())
	}
}

func procCount(args []value.Value) (value.Value, error) {
	if err := arity("count", args, 1); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *value.List:
		return value.Number(v.Len()), nil
	case *value.Map:
		return value.Number(v.Len()), nil
	case *value.Set:
		return value.Number(v.Len()), nil
	case value.Str:
		return value.Number(len(v)), nil
	default:
		return nil, fmt.Errorf("count: unsupported type %s", v.Type())
	}
}

func procNth(args []value.Value) (value.Value, error) {
	if err := arity("nth", args, 2); err != nil {
		return nil, err
	}
	l, err := asList("nth", args[0])
	if err != nil {
		return nil, err
	}
	idx, err := asNumber("nth", args[1])
	if err != nil {
		return nil, err
	}
	i := int(idx)
	if i < 0 || i >= l.Len() {
		return nil, fmt.Errorf("nth: index %d out of range (length %d)", i, l.Len())
	}
	return l.Get(i), nil
}

func procSlice(args []value.Value) (value.Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, fmt.Errorf("slice: expected 2 or 3 arguments, got %d", len(args))
	}
	l, err := asList("slice", args[0])
	if err != nil {
		return nil, err
	}
	from, err := asNumber("slice", args[1])
	if err != nil {
		return nil, err
	}
	to := float64(l.Len())
	if len(args) == 3 {
		to, err = asNumber("slice", args[2])
		if err != nil {
			return nil, err
		}
	}
	fi, ti := int(from), int(to)
	if fi < 0 || ti > l.Len() || fi > ti {
		return nil, fmt.Errorf("slice: invalid range [%d,%d) for length %d", fi, ti, l.Len())
	}
	out := make([]value.Value, 0, ti-fi)
	for i := fi; i < ti; i++ {
		out = append(out, l.Get(i))
	}
	return value.NewList(out...), nil
}

func procAppend(args []value.Value) (value.Value, error) {
	if err := arity("append", args, 2); err != nil {
		return nil, err
	}
	l, err := asList("append", args[0])
	if err != nil {
		return nil, err
	}
	return l.Append(args[1]), nil
}

func procPrepend(args []value.Value) (value.Value, error) {
	if err := arity("prepend", args, 2); err != nil {
		return nil, err
	}
	l, err := asList("prepend", args[0])
	if err != nil {
		return nil, err
	}
	out := append([]value.Value{args[1]}, l.ToSlice()...)
	return value.NewList(out...), nil
}

func procRest(args []value.Value) (value.Value, error) {
	if err := arity("rest", args, 1); err != nil {
		return nil, err
	}
	l, err := asList("rest", args[0])
	if err != nil {
		return nil, err
	}
	return l.Rest(), nil
}

func procButlast(args []value.Value) (value.Value, error) {
	if err := arity("butlast", args, 1); err != nil {
		return nil, err
	}
	l, err := asList("butlast", args[0])
	if err != nil {
		return nil, err
	}
	if l.Len() == 0 {
		return nil, fmt.Errorf("butlast: empty list")
	}
	return value.NewList(l.ToSlice()[:l.Len()-1]...), nil
}

func procGet(args []value.Value) (value.Value, error) {
	if err := arity("get", args, 2); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *value.Map:
		got, ok := v.Get(args[1])
		if !ok {
			return value.Nil, nil
		}
		return got, nil
	case *value.List:
		idx, err := asNumber("get", args[1])
		if err != nil {
			return nil, err
		}
		i := int(idx)
		if i < 0 || i >= v.Len() {
			return value.Nil, nil
		}
		return v.Get(i), nil
	case *value.Record:
		k, ok := args[1].(value.Keyword)
		if !ok {
			return nil, fmt.Errorf("get: record field must be a keyword, got %s", args[1].Type())
		}
		got, ok := v.Get(k)
		if !ok {
			return value.Nil, nil
		}
		return got, nil
	default:
		return nil, fmt.Errorf("get: unsupported type %s", v.Type())
	}
}

func procAssoc(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("assoc: expected 3 arguments, got %d", len(args))
	}
	switch v := args[0].(type) {
	case *value.Map:
		return v.Put(args[1], args[2]), nil
	case *value.List:
		idx, err := asNumber("assoc", args[1])
		if err != nil {
			return nil, err
		}
		i := int(idx)
		if i < 0 || i >= v.Len() {
			return nil, fmt.Errorf("assoc: index %d out of range (length %d)", i, v.Len())
		}
		return v.Set(i, args[2]), nil
	case *value.Record:
		k, ok := args[1].(value.Keyword)
		if !ok {
			return nil, fmt.Errorf("assoc: record field must be a keyword, got %s", args[1].Type())
		}
		return v.With(k, args[2])
	default:
		return nil, fmt.Errorf("assoc: unsupported type %s", v.Type())
	}
}

func procDissoc(args []value.Value) (value.Value, error) {
	if err := arity("dissoc", args, 2); err != nil {
		return nil, err
	}
	m, ok := args[0].(*value.Map)
	if !ok {
		return nil, fmt.Errorf("dissoc: expected a map, got %s", args[0].Type())
	}
	return m.Delete(args[1]), nil
}

func procKeys(args []value.Value) (value.Value, error) {
	if err := arity("keys", args, 1); err != nil {
		return nil, err
	}
	m, ok := args[0].(*value.Map)
	if !ok {
		return nil, fmt.Errorf("keys: expected a map, got %s", args[0].Type())
	}
	ks := m.Keys()
	sort.Slice(ks, func(i, j int) bool { return value.Compare(ks[i], ks[j]) < 0 })
	return value.NewList(ks...), nil
}

// procDo sequences its arguments and returns the last one. Because a proc
// call's arguments are evaluated left-to-right before the proc runs (spec
// §4.8), the sequencing effect `do` provides in other Lisps falls out of
// ordinary applicative-order evaluation here; `do` itself only needs to
// pick the last already-evaluated value.
func procDo(args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Nil, nil
	}
	return args[len(args)-1], nil
}

func procContainsQuestion(args []value.Value) (value.Value, error) {
	if err := arity("contains?", args, 2); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case *value.Map:
		_, ok := v.Get(args[1])
		return value.Bool(ok), nil
	case *value.Set:
		return value.Bool(v.Has(args[1])), nil
	case *value.List:
		idx, err := asNumber("contains?", args[1])
		if err != nil {
			return nil, err
		}
		i := int(idx)
		return value.Bool(i >= 0 && i < v.Len()), nil
	default:
		return nil, fmt.Errorf("contains?: unsupported type %s", v.Type())
	}
}
