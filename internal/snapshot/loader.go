package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/calcit-lang/calcit-go/lang/store"
	"github.com/calcit-lang/calcit-go/lang/value"
)

// DefaultEntryFile is the snapshot filename the CLI's `input` argument
// defaults to (spec §6 "CLI").
const DefaultEntryFile = "compact.cirru"

// Configs is the snapshot's `configs` header (spec §6 "Program input").
// Decoded with gopkg.in/yaml.v3, since this section is conventional
// key/value data, not a code tree.
type Configs struct {
	InitFn  string   `yaml:"init-fn"`
	Modules []string `yaml:"modules"`
}

// NsFile is one namespace's contribution to a snapshot's `files` mapping
// (spec §6): its own ns-import list plus its named definitions.
type NsFile struct {
	Imports value.Value // a *value.List of import-entry forms, or Nil
	Defs    map[string]value.Value
}

// Snapshot is a fully parsed program input (spec §6).
type Snapshot struct {
	Configs Configs
	Files   map[string]NsFile
}

// separator divides a snapshot file's YAML `configs` header from its
// indentation-structured `files` body.
const separator = "---"

// Parse decodes a whole snapshot file's text into a Snapshot.
func Parse(text string) (*Snapshot, error) {
	header, body, ok := strings.Cut(text, "\n"+separator+"\n")
	if !ok {
		header, body = text, ""
	}
	var cfg Configs
	if strings.TrimSpace(header) != "" {
		if err := yaml.Unmarshal([]byte(header), &cfg); err != nil {
			return nil, fmt.Errorf("snapshot: decoding configs: %w", err)
		}
	}
	files, err := parseFiles(body)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Configs: cfg, Files: files}, nil
}

// Load reads and parses the snapshot file at path.
func Load(path string) (*Snapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: reading %s: %w", path, err)
	}
	return Parse(string(content))
}

// LoadWithModules loads the snapshot at entryPath, then loads and merges in
// every module named by its `configs.modules` list (spec §6 "Module
// resolution"), in listed order, each module's files overwriting any
// earlier ones of the same namespace — matching how the reference CLI
// layers module snapshots onto the entry's own before the core library is
// added (calcit-go carries no embedded core library, so that final layer is
// a Non-goal here).
func LoadWithModules(entryPath, homeDir string) (*Snapshot, error) {
	snap, err := Load(entryPath)
	if err != nil {
		return nil, err
	}
	entryDir := filepath.Dir(entryPath)
	for _, modPath := range snap.Configs.Modules {
		resolved := ResolveModulePath(modPath, entryDir, homeDir)
		modSnap, err := Load(resolved)
		if err != nil {
			return nil, fmt.Errorf("snapshot: loading module %s: %w", modPath, err)
		}
		for ns, nf := range modSnap.Files {
			snap.Files[ns] = nf
		}
	}
	return snap, nil
}

func parseFiles(body string) (map[string]NsFile, error) {
	lines := splitNonBlank(body)
	if len(lines) == 0 {
		return map[string]NsFile{}, nil
	}
	roots := buildForest(lines)
	files := make(map[string]NsFile, len(roots))
	for _, root := range roots {
		fields := strings.Fields(root.text)
		if len(fields) != 2 || fields[0] != "ns" {
			return nil, fmt.Errorf("snapshot: expected `ns <name>`, got %q", root.text)
		}
		ns := fields[1]
		nf := NsFile{Imports: value.Nil, Defs: map[string]value.Value{}}
		for _, child := range root.children {
			switch child.text {
			case "require":
				entries := make([]value.Value, 0, len(child.children))
				for _, entry := range child.children {
					toks, err := tokenizeLine(entry.text, ns, "")
					if err != nil {
						return nil, err
					}
					entries = append(entries, value.NewList(toks...))
				}
				nf.Imports = value.NewList(entries...)
			case "defs":
				for _, def := range child.children {
					name := strings.TrimSpace(def.text)
					if len(def.children) != 1 {
						return nil, fmt.Errorf("snapshot: def %s/%s must have exactly one code tree, got %d", ns, name, len(def.children))
					}
					code, err := nodeToValue(def.children[0], ns, name)
					if err != nil {
						return nil, err
					}
					nf.Defs[name] = code
				}
			default:
				return nil, fmt.Errorf("snapshot: unexpected section %q under ns %s", child.text, ns)
			}
		}
		files[ns] = nf
	}
	return files, nil
}

// node is a generic indentation-tree node, used for the `files` body's
// outer ns/require/defs structure (ParseCodeTree's own parseLines builds
// the equivalent structure directly into value.Value for a single tree).
type node struct {
	indent   int
	text     string
	children []*node
}

// buildForest turns a flat, already-indent-tagged line list into a forest
// of nodes, a deeper-indented line becoming a child of the nearest
// shallower line above it.
func buildForest(lines []rawLine) []*node {
	var roots []*node
	var stack []*node
	for _, ln := range lines {
		n := &node{indent: ln.indent, text: ln.text}
		for len(stack) > 0 && stack[len(stack)-1].indent >= ln.indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
		}
		stack = append(stack, n)
	}
	return roots
}

// nodeToValue converts one node (and its children) into a code form: the
// node's own inline tokens followed by one nested List per child,
// mirroring ParseCodeTree's parseLines semantics.
func nodeToValue(n *node, ns, def string) (value.Value, error) {
	elems, err := tokenizeLine(n.text, ns, def)
	if err != nil {
		return nil, err
	}
	for _, child := range n.children {
		cv, err := nodeToValue(child, ns, def)
		if err != nil {
			return nil, err
		}
		elems = append(elems, cv)
	}
	return value.NewList(elems...), nil
}

// LoadInto populates st with every namespace's definitions and import rules
// from snap (spec §4.2's import table, consulted by the preprocessor).
func LoadInto(st *store.Store, snap *Snapshot) error {
	for ns, nf := range snap.Files {
		for name, code := range nf.Defs {
			st.WriteDefCode(ns, name, code)
		}
		aliases, refers, defaultImport, err := resolveImportEntries(nf.Imports)
		if err != nil {
			return fmt.Errorf("snapshot: ns %s: %w", ns, err)
		}
		st.SetImportRules(ns, aliases, refers, defaultImport)
	}
	return nil
}

// resolveImportEntries interprets a ns's import-list entries: `lib :as
// alias` installs an alias; `lib :refer (a b)` installs direct refers;
// `lib :default` installs a last-resort default import (spec §4.2's three
// lookup tiers).
func resolveImportEntries(imports value.Value) (map[string]string, map[string]store.ImportRule, string, error) {
	aliases := map[string]string{}
	refers := map[string]store.ImportRule{}
	defaultImport := ""

	list, ok := imports.(*value.List)
	if !ok {
		return aliases, refers, defaultImport, nil
	}
	for _, entryV := range list.ToSlice() {
		entry, ok := entryV.(*value.List)
		if !ok || entry.Len() < 2 {
			return nil, nil, "", fmt.Errorf("malformed import entry %s", value.ProgramForm(entryV))
		}
		libSym, ok := entry.Get(0).(*value.Symbol)
		if !ok {
			return nil, nil, "", fmt.Errorf("import entry must start with a namespace symbol, got %s", value.ProgramForm(entry.Get(0)))
		}
		lib := libSym.Name
		kw, ok := entry.Get(1).(value.Keyword)
		if !ok {
			return nil, nil, "", fmt.Errorf("import entry for %s must have a :as/:refer/:default keyword", lib)
		}
		switch string(kw) {
		case "as":
			if entry.Len() != 3 {
				return nil, nil, "", fmt.Errorf(":as import for %s needs exactly one alias", lib)
			}
			aliasSym, ok := entry.Get(2).(*value.Symbol)
			if !ok {
				return nil, nil, "", fmt.Errorf(":as alias for %s must be a symbol", lib)
			}
			aliases[aliasSym.Name] = lib
		case "refer":
			if entry.Len() != 3 {
				return nil, nil, "", fmt.Errorf(":refer import for %s needs exactly one name list", lib)
			}
			names, ok := entry.Get(2).(*value.List)
			if !ok {
				return nil, nil, "", fmt.Errorf(":refer for %s must list names", lib)
			}
			for _, nv := range names.ToSlice() {
				nsym, ok := nv.(*value.Symbol)
				if !ok {
					return nil, nil, "", fmt.Errorf(":refer name for %s must be a symbol", lib)
				}
				refers[nsym.Name] = store.ImportRule{Ns: lib, Def: nsym.Name}
			}
		case "default":
			defaultImport = lib
		default:
			return nil, nil, "", fmt.Errorf("unknown import marker :%s for %s", kw, lib)
		}
	}
	return aliases, refers, defaultImport, nil
}

// ResolveModulePath applies spec §6's module resolution rules: a path
// ending in `/` appends DefaultEntryFile; `./`-prefixed paths resolve under
// entryDir; absolute paths are used as-is; anything else is prefixed with
// `$HOME/.config/calcit/modules/`.
func ResolveModulePath(path, entryDir, homeDir string) string {
	if strings.HasSuffix(path, "/") {
		path += DefaultEntryFile
	}
	switch {
	case strings.HasPrefix(path, "./"):
		return filepath.Join(entryDir, path)
	case filepath.IsAbs(path):
		return path
	default:
		return filepath.Join(homeDir, ".config", "calcit", "modules", path)
	}
}
