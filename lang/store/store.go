// Package store implements the program store (spec §3, §4.2): a
// process-wide mapping from namespace to definitions, with two layers (the
// original parsed code, and the memoized evaluated value), plus the import
// resolution table.
//
// Grounded on the teacher's machine.Map, which backs a *language* map value
// with a github.com/dolthub/swiss map; here the same library backs the
// *host*-side store, which is exactly the mutable, non-structurally-shared
// map the spec calls for (as opposed to lang/value's persistent HAMT, which
// backs the language's own map/set values).
package store

import (
	"fmt"
	"sync"

	"github.com/dolthub/swiss"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// ImportRule describes how a name in an importing namespace maps to a
// definition somewhere else, mirroring the three lookup tiers of spec §4.2.
type ImportRule struct {
	Ns  string
	Def string // empty for a bare namespace alias
}

type nsDefs struct {
	code    *swiss.Map[string, value.Value]
	evaled  *swiss.Map[string, value.Value]
	mu      sync.Mutex
	aliases map[string]string     // alias -> target ns
	refers  map[string]ImportRule // directly-referred name -> target
	// defaultImport is the ns consulted as a last resort (spec "increasingly
	// permissive" tiers) when a name isn't found locally, isn't a core name,
	// and isn't covered by an alias or direct refer.
	defaultImport string
}

func newNsDefs() *nsDefs {
	return &nsDefs{
		code:    swiss.NewMap[string, value.Value](8),
		evaled:  swiss.NewMap[string, value.Value](8),
		aliases: make(map[string]string),
		refers:  make(map[string]ImportRule),
	}
}

// Store is the process-wide program store. The zero value is not usable;
// use New.
type Store struct {
	mu sync.Mutex
	ns *swiss.Map[string, *nsDefs]
}

// New returns an empty Store.
func New() *Store {
	return &Store{ns: swiss.NewMap[string, *nsDefs](8)}
}

func (s *Store) nsFor(ns string) *nsDefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.ns.Get(ns)
	if !ok {
		n = newNsDefs()
		s.ns.Put(ns, n)
	}
	return n
}

// HasNs reports whether ns has an entry in the store. Every method that
// takes a namespace, the lookups included, creates that entry on first use,
// so HasNs does not tell whether ns has any code or import rules.
func (s *Store) HasNs(ns string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ns.Get(ns)
	return ok
}

// WriteDefCode records the original parsed form for ns/name. Called once per
// definition, at snapshot-load time.
func (s *Store) WriteDefCode(ns, name string, code value.Value) {
	n := s.nsFor(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.code.Put(name, code)
}

// HasDefCode reports whether ns/name has a recorded definition.
func (s *Store) HasDefCode(ns, name string) bool {
	n := s.nsFor(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.code.Get(name)
	return ok
}

// LookupDefCode returns the original parsed form for ns/name, if any.
func (s *Store) LookupDefCode(ns, name string) (value.Value, bool) {
	n := s.nsFor(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.code.Get(name)
}

// WriteEvaledDef overwrites the evaluated value for ns/name. Overwrite is
// explicitly permitted (spec §4.2) — it is used to write a provisional Nil
// before walking a definition's body, to break cycles in mutually-referring
// top-level defs (spec §4.7, §8 scenario 6).
func (s *Store) WriteEvaledDef(ns, name string, v value.Value) {
	n := s.nsFor(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.evaled.Put(name, v)
}

// LookupEvaledDef returns the memoized evaluated value for ns/name, if any.
func (s *Store) LookupEvaledDef(ns, name string) (value.Value, bool) {
	n := s.nsFor(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.evaled.Get(name)
}

// SetImportRules installs the import table for ns: aliases maps alias name
// to target namespace; refers maps a directly-imported name to its target
// ns/def; defaultImport, if non-empty, is consulted as the last-resort
// lookup tier.
func (s *Store) SetImportRules(ns string, aliases map[string]string, refers map[string]ImportRule, defaultImport string) {
	n := s.nsFor(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.aliases = aliases
	n.refers = refers
	n.defaultImport = defaultImport
}

// LookupNsTargetInImport resolves an alias to its target namespace (the
// first, strictest lookup tier of spec §4.2).
func (s *Store) LookupNsTargetInImport(atNs, alias string) (string, bool) {
	n := s.nsFor(atNs)
	n.mu.Lock()
	defer n.mu.Unlock()
	target, ok := n.aliases[alias]
	return target, ok
}

// LookupDefTargetInImport resolves a directly-referred name (the second
// lookup tier).
func (s *Store) LookupDefTargetInImport(atNs, name string) (ImportRule, bool) {
	n := s.nsFor(atNs)
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.refers[name]
	return r, ok
}

// LookupDefaultTargetInImport resolves name against the namespace's default
// import, if one was configured (the third, most permissive lookup tier).
func (s *Store) LookupDefaultTargetInImport(atNs, name string) (ImportRule, bool) {
	n := s.nsFor(atNs)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.defaultImport == "" {
		return ImportRule{}, false
	}
	return ImportRule{Ns: n.defaultImport, Def: name}, true
}

// DefNames returns the sorted-by-insertion-unspecified set of definition
// names recorded for ns, for diagnostics and tooling.
func (s *Store) DefNames(ns string) []string {
	n := s.nsFor(ns)
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, 0, int(n.code.Count()))
	n.code.Iter(func(name string, _ value.Value) bool {
		names = append(names, name)
		return false
	})
	return names
}

func (s *Store) String() string {
	return fmt.Sprintf("store(%d namespaces)", s.ns.Count())
}
