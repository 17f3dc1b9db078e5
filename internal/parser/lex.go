package parser

import "strings"

// splitStatements breaks a DDL batch on top-level semicolons, stripping
// comments. Quote and backtick state is tracked so literals containing
// ';' survive intact.
func splitStatements(ddl string) []string {
	var (
		stmts []string
		b     strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			stmts = append(stmts, s)
		}
		b.Reset()
	}

	runes := []rune(ddl)
	var inSingle, inDouble, inBacktick bool
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inSingle:
			b.WriteRune(r)
			if r == '\\' && i+1 < len(runes) {
				i++
				b.WriteRune(runes[i])
			} else if r == '\'' {
				inSingle = false
			}
		case inDouble:
			b.WriteRune(r)
			if r == '\\' && i+1 < len(runes) {
				i++
				b.WriteRune(runes[i])
			} else if r == '"' {
				inDouble = false
			}
		case inBacktick:
			b.WriteRune(r)
			if r == '`' {
				inBacktick = false
			}
		case r == '\'':
			inSingle = true
			b.WriteRune(r)
		case r == '"':
			inDouble = true
			b.WriteRune(r)
		case r == '`':
			inBacktick = true
			b.WriteRune(r)
		case r == '#':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '-' && i+2 < len(runes) && runes[i+1] == '-' && (runes[i+2] == ' ' || runes[i+2] == '\t' || runes[i+2] == '\n'):
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++ // skip the closing '/'
		case r == ';':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return stmts
}

// splitTopLevel splits on sep outside quotes, backticks, and parens.
func splitTopLevel(s string, sep rune) []string {
	var (
		parts []string
		b     strings.Builder
		depth int
	)
	var inSingle, inDouble, inBacktick bool
	for _, r := range s {
		switch {
		case inSingle:
			if r == '\'' {
				inSingle = false
			}
		case inDouble:
			if r == '"' {
				inDouble = false
			}
		case inBacktick:
			if r == '`' {
				inBacktick = false
			}
		case r == '\'':
			inSingle = true
		case r == '"':
			inDouble = true
		case r == '`':
			inBacktick = true
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == sep && depth == 0:
			parts = append(parts, b.String())
			b.Reset()
			continue
		}
		b.WriteRune(r)
	}
	parts = append(parts, b.String())
	return parts
}

// parenBlock returns the contents of the leading parenthesized block.
func parenBlock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") {
		return "", false
	}
	depth := 0
	var inSingle, inDouble, inBacktick bool
	for i, r := range s {
		switch {
		case inSingle:
			if r == '\'' {
				inSingle = false
			}
		case inDouble:
			if r == '"' {
				inDouble = false
			}
		case inBacktick:
			if r == '`' {
				inBacktick = false
			}
		case r == '\'':
			inSingle = true
		case r == '"':
			inDouble = true
		case r == '`':
			inBacktick = true
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth == 0 {
				return s[1:i], true
			}
		}
	}
	return "", false
}

// readName consumes a possibly qualified, possibly backticked object
// name and returns it plus the remainder of the statement.
func readName(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\n")
	var inBacktick bool
	for i, r := range s {
		switch {
		case inBacktick:
			if r == '`' {
				inBacktick = false
			}
		case r == '`':
			inBacktick = true
		case r == ' ' || r == '\t' || r == '\n' || r == '(' || r == ';':
			return s[:i], s[i:]
		}
	}
	return s, ""
}

// splitQualified splits db.table on dots outside backticks and strips
// the quoting.
func splitQualified(name string) []string {
	var (
		parts []string
		b     strings.Builder
	)
	var inBacktick bool
	for _, r := range name {
		switch {
		case inBacktick:
			if r == '`' {
				inBacktick = false
				continue
			}
			b.WriteRune(r)
		case r == '`':
			inBacktick = true
		case r == '.':
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	parts = append(parts, b.String())
	return parts
}

func unquote(s string) string {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	return strings.Trim(s, "`")
}
