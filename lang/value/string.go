package value

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Str is the type of text string values.
type Str string

var (
	_ Value    = Str("")
	_ Hashable = Str("")
	_ Ordered  = Str("")
)

func (s Str) String() string      { return string(s) }
func (s Str) ProgramForm() string { return strconv.Quote(string(s)) }
func (s Str) Type() string        { return "string" }
func (s Str) Hash() uint32        { return fnvHash(string(s)) }
func (s Str) Cmp(y Value) int     { return strings.Compare(string(s), string(y.(Str))) }

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
