package value

import "fmt"

// ResolutionKind is the outcome of the preprocessor's decision about what a
// symbol refers to (spec §3, §4.7).
type ResolutionKind uint8

const (
	// Unresolved means the preprocessor has not yet (or could not) classify
	// the symbol. A symbol left Unresolved after preprocessing means the
	// resolver emitted an "unknown symbol" warning.
	Unresolved ResolutionKind = iota
	// LocalBinding means the symbol names a local (scope) binding.
	LocalBinding
	// RawMarker means the symbol is one of the in-band markers `~`, `~@`, `&`,
	// `?` and must not be evaluated as a reference.
	RawMarker
	// ResolvedDef means the symbol names a top-level definition, reached
	// possibly through an import rule.
	ResolvedDef
)

func (k ResolutionKind) String() string {
	switch k {
	case Unresolved:
		return "unresolved"
	case LocalBinding:
		return "local-binding"
	case RawMarker:
		return "raw-marker"
	case ResolvedDef:
		return "resolved-def"
	default:
		return fmt.Sprintf("resolution(%d)", k)
	}
}

// ImportRule records which of the three import lookup tiers (spec §4.2)
// produced a ResolvedDef resolution, purely for diagnostics.
type ImportRule uint8

const (
	// NoImportRule is used for references resolved without going through the
	// import table at all (core namespace or the symbol's own namespace).
	NoImportRule ImportRule = iota
	AliasImportRule
	DirectReferImportRule
	DefaultImportRule
)

// Resolution is the annotation a Symbol carries once the preprocessor has
// classified it. The zero value is the Unresolved state.
type Resolution struct {
	Kind ResolutionKind

	// Populated when Kind == ResolvedDef.
	Ns         string
	Def        string
	ImportRule ImportRule
}

// Symbol is the only value whose meaning is position-dependent: its
// Resolution field is filled in by the preprocessor (lang/eval) before
// evaluation ever sees it.
type Symbol struct {
	Name  string
	Ns    string // the namespace this symbol's textual occurrence belongs to
	AtDef string // the definition this symbol's textual occurrence belongs to
	Resolution
}

var _ Value = (*Symbol)(nil)

// NewSymbol returns an unresolved symbol.
func NewSymbol(name, ns, atDef string) *Symbol {
	return &Symbol{Name: name, Ns: ns, AtDef: atDef}
}

func (s *Symbol) String() string { return s.Name }
func (s *Symbol) Type() string   { return "symbol" }

// WithResolution returns a shallow copy of s carrying the given resolution.
// Symbols are otherwise treated as immutable once constructed so that the
// same parsed tree can be safely re-preprocessed (e.g. during macro
// re-expansion) without clobbering a previous annotation still referenced
// elsewhere.
func (s *Symbol) WithResolution(r Resolution) *Symbol {
	cp := *s
	cp.Resolution = r
	return &cp
}

// IsRawMarkerName reports whether name is one of the four in-band markers
// recognized purely by spelling (spec §4.7 rule 1).
func IsRawMarkerName(name string) bool {
	switch name {
	case "~", "~@", "&", "?":
		return true
	default:
		return false
	}
}
