package value

// TypeOf returns v's variant name, the same string backing the language's
// `type-of` builtin.
func TypeOf(v Value) string { return v.Type() }
