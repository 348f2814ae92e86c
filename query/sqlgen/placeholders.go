package sqlgen

import "strings"

// Renumber replaces every '?' outside single-quoted literals with
// placeholder(1), placeholder(2), ... in order of appearance. Doubled quotes
// inside a literal toggle the state twice and so stay inside it.
func Renumber(sql string, placeholder func(int) string) string {
	if strings.IndexByte(sql, '?') < 0 {
		return sql
	}

	var sb strings.Builder
	sb.Grow(len(sql) + 8)

	n := 0
	inLiteral := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			sb.WriteByte(c)
		case c == '?' && !inLiteral:
			n++
			sb.WriteString(placeholder(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// CountPlaceholders returns the number of '?' markers outside literals.
func CountPlaceholders(sql string) int {
	n := 0
	Renumber(sql, func(int) string {
		n++
		return "?"
	})
	return n
}
