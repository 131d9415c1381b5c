// Package stripcomments removes // and /* */ comments from Verilog
// source while preserving line structure and string literals.
package stripcomments

import "strings"

// Strip rewrites source with comments replaced. With replacement ' '
// the comment contents and delimiters become spaces; with replacement
// 0 they are deleted; any other byte keeps the delimiters and replaces
// the contents. Newlines inside comments are always preserved.
func Strip(source string, replacement byte) string {
	var out strings.Builder
	out.Grow(len(source))

	emit := func(s string, delimiter bool) {
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c == '\n' {
				out.WriteByte('\n')
				continue
			}
			switch {
			case replacement == 0:
				// deleted
			case replacement == ' ':
				out.WriteByte(' ')
			case delimiter:
				out.WriteByte(c)
			default:
				out.WriteByte(replacement)
			}
		}
	}

	for i := 0; i < len(source); {
		c := source[i]
		switch {
		case c == '"':
			j := i + 1
			for j < len(source) {
				if source[j] == '\\' && j+1 < len(source) {
					j += 2
					continue
				}
				if source[j] == '"' {
					j++
					break
				}
				j++
			}
			out.WriteString(source[i:j])
			i = j

		case c == '/' && i+1 < len(source) && source[i+1] == '/':
			j := i + 2
			for j < len(source) && source[j] != '\n' {
				j++
			}
			emit(source[i:i+2], true)
			emit(source[i+2:j], false)
			i = j

		case c == '/' && i+1 < len(source) && source[i+1] == '*':
			j := i + 2
			for j < len(source) {
				if source[j] == '*' && j+1 < len(source) && source[j+1] == '/' {
					j += 2
					break
				}
				j++
			}
			end := j
			hasClose := j >= i+4 && strings.HasSuffix(source[i:j], "*/")
			emit(source[i:i+2], true)
			if hasClose {
				emit(source[i+2:end-2], false)
				emit(source[end-2:end], true)
			} else {
				emit(source[i+2:end], false)
			}
			i = j

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}
