package value

import "github.com/google/uuid"

// Fn is a function value created by `defn` (spec §3, §4.9). Its UniqueID is
// minted once at construction time with google/uuid, the way funvibe-funxy's
// evaluator mints identifiers for runtime objects that need global identity
// beyond structural equality (the spec explicitly does not guarantee
// identity between structurally-equal persistent values, but Fn/Macro values
// are reference types and need a stable identity for the recursion-detection
// and call-stack-naming uses the original Rust source puts unique-id to).
type Fn struct {
	Name          string
	DefiningNs    string
	UniqueID      string
	CapturedScope *Scope
	Params        *List
	Body          *List
}

var _ Value = (*Fn)(nil)

// NewFn constructs a function value, minting a fresh UniqueID.
func NewFn(name, definingNs string, capturedScope *Scope, params, body *List) *Fn {
	return &Fn{
		Name:          name,
		DefiningNs:    definingNs,
		UniqueID:      uuid.NewString(),
		CapturedScope: capturedScope,
		Params:        params,
		Body:          body,
	}
}

func (f *Fn) String() string {
	name := f.Name
	if name == "" {
		name = "anonymous-fn"
	}
	return "(&fn " + name + ")"
}
func (f *Fn) Type() string { return "fn" }

// Macro is a function value created by `defmacro`, invoked at
// preprocessing/macro-expansion time rather than at evaluation time.
type Macro struct {
	Name       string
	DefiningNs string
	UniqueID   string
	Params     *List
	Body       *List
}

var _ Value = (*Macro)(nil)

// NewMacro constructs a macro value, minting a fresh UniqueID.
func NewMacro(name, definingNs string, params, body *List) *Macro {
	return &Macro{Name: name, DefiningNs: definingNs, UniqueID: uuid.NewString(), Params: params, Body: body}
}

func (m *Macro) String() string {
	name := m.Name
	if name == "" {
		name = "anonymous-macro"
	}
	return "(&macro " + name + ")"
}
func (m *Macro) Type() string { return "macro" }
