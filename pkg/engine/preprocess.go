package engine

import "strings"

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites script source before it reaches zygomys:
//
//   - :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbol and never collide with user variables.
//   - kebab-case identifiers become snake_case (zygomys reads a hyphen as
//     subtraction): my-cube -> my_cube.
//   - ; line comments become // comments.
//
// String literals ("..." and `...`) pass through untouched.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)

	b := []byte(source)
	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '"':
			i = copyQuoted(&out, b, i, '"', true)
		case c == '`':
			i = copyQuoted(&out, b, i, '`', false)
		case c == ';':
			i = rewriteComment(&out, b, i)
		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out.WriteString(":=")
			i += 2
		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			i = rewriteKeyword(&out, b, i)
		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out.WriteByte('_')
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// copyQuoted copies the literal starting at b[i] up to and including the
// closing quote and returns the index after it.
func copyQuoted(out *strings.Builder, b []byte, i int, quote byte, escapes bool) int {
	out.WriteByte(b[i])
	i++
	for i < len(b) && b[i] != quote {
		if escapes && b[i] == '\\' && i+1 < len(b) {
			out.Write(b[i : i+2])
			i += 2
			continue
		}
		out.WriteByte(b[i])
		i++
	}
	if i < len(b) {
		out.WriteByte(b[i])
		i++
	}
	return i
}

// rewriteComment turns ;, ;; or ;;; into // and copies the rest of the line.
func rewriteComment(out *strings.Builder, b []byte, i int) int {
	out.WriteString("//")
	for i < len(b) && b[i] == ';' {
		i++
	}
	for i < len(b) && b[i] != '\n' {
		out.WriteByte(b[i])
		i++
	}
	return i
}

func rewriteKeyword(out *strings.Builder, b []byte, i int) int {
	j := i + 1
	for j < len(b) && isKWChar(b[j]) {
		j++
	}
	out.WriteByte('"')
	out.WriteString(kwPrefix)
	out.Write(b[i+1 : j])
	out.WriteByte('"')
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}
