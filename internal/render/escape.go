package render

import (
	"fmt"
	"strings"
)

// PythonString returns s as a double-quoted Python string literal.
// Backslashes, quotes and control characters are escaped; other runes
// are kept as is because Python 3 sources default to UTF-8.
func PythonString(s string) string {
	var builder strings.Builder

	builder.Grow(len(s) + 2)
	builder.WriteByte('"')

	for _, r := range s {
		switch r {
		case '\\':
			builder.WriteString(`\\`)
		case '"':
			builder.WriteString(`\"`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&builder, `\x%02x`, r)

				continue
			}

			builder.WriteRune(r)
		}
	}

	builder.WriteByte('"')

	return builder.String()
}

// PythonList renders items as the inside of a list literal: "a", "b".
func PythonList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, PythonString(item))
	}

	return strings.Join(quoted, ", ")
}
