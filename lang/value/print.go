package value

import "strings"

func printSeq(open string, elems []Value, close string) string {
	var sb strings.Builder
	sb.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(ProgramForm(e))
	}
	sb.WriteString(close)
	return sb.String()
}
