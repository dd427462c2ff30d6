// Package snapshot loads a program's entry file — spec §6's "snapshot, a
// tree in an indentation-structured object-notation" — into the program
// store. It is deliberately thin (spec §1 marks the surrounding file format
// out of scope): the `configs` header is conventional key/value data and is
// decoded with gopkg.in/yaml.v3; the indentation-structured `files` body has
// no library anywhere in the retrieval pack, so it is parsed by a narrow,
// hand-written recursive-descent reader in this file.
package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/calcit-lang/calcit-go/lang/value"
)

// ParseCodeTree reads one indentation-structured code tree from text and
// returns it as a value.Value suitable for value.NewList(...)'s elements or
// for storing directly via Store.WriteDefCode. Every symbol token parsed is
// tagged with ns/def (spec §3's Symbol.Ns/AtDef, consulted for diagnostics).
//
// Each line holds space-separated tokens; a token written as `(a b c)`
// nests inline; a line indented deeper than its predecessor nests as an
// additional trailing child of the nearest shallower line, mirroring how a
// Cirru-family reader turns indentation into the parens it omits. A lone
// top-level tree must not mix top-level siblings — callers that need
// several defs split the source into per-def blocks first (loader.go's
// parseFiles does this).
func ParseCodeTree(text, ns, def string) (value.Value, error) {
	lines := splitNonBlank(text)
	if len(lines) == 0 {
		return value.Nil, nil
	}
	trees, _, err := parseLines(lines, 0, indentOf(lines[0]), ns, def)
	if err != nil {
		return nil, err
	}
	if len(trees) != 1 {
		return nil, fmt.Errorf("snapshot: expected exactly one top-level form, got %d", len(trees))
	}
	return trees[0], nil
}

type rawLine struct {
	indent int
	text   string
}

func splitNonBlank(text string) []rawLine {
	var out []rawLine
	for _, ln := range strings.Split(text, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		out = append(out, rawLine{indent: countIndent(ln), text: strings.TrimLeft(ln, " ")})
	}
	return out
}

func countIndent(ln string) int {
	n := 0
	for _, r := range ln {
		if r != ' ' {
			break
		}
		n++
	}
	return n
}

func indentOf(l rawLine) int { return l.indent }

// parseLines consumes lines starting at idx, all belonging to a single
// indentation level (level), returning the forms they produce (each
// shallower line plus whatever deeper-indented lines nest beneath it) and
// the index of the first line not consumed.
func parseLines(lines []rawLine, idx, level int, ns, def string) ([]value.Value, int, error) {
	var out []value.Value
	for idx < len(lines) {
		ln := lines[idx]
		if ln.indent < level {
			break
		}
		if ln.indent > level {
			return nil, idx, fmt.Errorf("snapshot: unexpected indent at %q", ln.text)
		}
		elems, err := tokenizeLine(ln.text, ns, def)
		if err != nil {
			return nil, idx, err
		}
		idx++
		var children []value.Value
		if idx < len(lines) && lines[idx].indent > level {
			var err error
			children, idx, err = parseLines(lines, idx, lines[idx].indent, ns, def)
			if err != nil {
				return nil, idx, err
			}
		}
		out = append(out, value.NewList(append(elems, children...)...))
	}
	return out, idx, nil
}

// tokenizeLine parses one line's inline tokens, honoring parens, double
// quoted strings and `:keyword`/bare-symbol/number tokens.
func tokenizeLine(line, ns, def string) ([]value.Value, error) {
	p := &lineParser{s: line, ns: ns, def: def}
	elems, err := p.parseSeq(false)
	if err != nil {
		return nil, err
	}
	return elems, nil
}

type lineParser struct {
	s       string
	pos     int
	ns, def string
}

func (p *lineParser) parseSeq(stopAtParen bool) ([]value.Value, error) {
	var out []value.Value
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			if stopAtParen {
				return nil, fmt.Errorf("snapshot: unclosed paren in %q", p.s)
			}
			return out, nil
		}
		if p.s[p.pos] == ')' {
			if !stopAtParen {
				return nil, fmt.Errorf("snapshot: unexpected ')' in %q", p.s)
			}
			p.pos++
			return out, nil
		}
		v, err := p.parseOne()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func (p *lineParser) parseOne() (value.Value, error) {
	switch p.s[p.pos] {
	case '(':
		p.pos++
		elems, err := p.parseSeq(true)
		if err != nil {
			return nil, err
		}
		return value.NewList(elems...), nil
	case '"':
		return p.parseString()
	default:
		return p.parseAtom(), nil
	}
}

func (p *lineParser) parseString() (value.Value, error) {
	p.pos++ // opening quote
	var sb strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '\\' && p.pos+1 < len(p.s) {
			sb.WriteByte(p.s[p.pos+1])
			p.pos += 2
			continue
		}
		if c == '"' {
			p.pos++
			return value.Str(sb.String()), nil
		}
		sb.WriteByte(c)
		p.pos++
	}
	return nil, fmt.Errorf("snapshot: unterminated string in %q", p.s)
}

func (p *lineParser) parseAtom() value.Value {
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != ' ' && p.s[p.pos] != '(' && p.s[p.pos] != ')' {
		p.pos++
	}
	tok := p.s[start:p.pos]
	if strings.HasPrefix(tok, ":") {
		return value.Keyword(tok[1:])
	}
	if n, err := strconv.ParseFloat(tok, 64); err == nil {
		return value.Number(n)
	}
	return value.NewSymbol(tok, p.ns, p.def)
}

func (p *lineParser) skipSpace() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}
