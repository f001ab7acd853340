package postgres

import (
	"fmt"
	"strings"
)

// Rebind converts a SQL string using ":name" placeholders into the "?"
// placeholder form GORM binds positionally, returning the rewritten SQL
// and the arguments in placeholder order.
//
// The scanner leaves alone:
//   - "::" type casts ("value::boolean"),
//   - anything inside single-quoted string literals,
//   - anything inside double-quoted identifiers.
//
// A placeholder without a matching entry in params is an error: the contract
// between builder and executor is that the parameter map is complete.
func Rebind(sql string, params map[string]any) (string, []any, error) {
	var (
		out  strings.Builder
		args []any
	)

	inString := false
	inIdent := false

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		switch {
		case inString:
			out.WriteByte(c)
			if c == '\'' {
				// '' is an escaped quote inside the literal.
				if i+1 < len(sql) && sql[i+1] == '\'' {
					out.WriteByte(sql[i+1])
					i++
				} else {
					inString = false
				}
			}

		case inIdent:
			out.WriteByte(c)
			if c == '"' {
				inIdent = false
			}

		case c == '\'':
			inString = true
			out.WriteByte(c)

		case c == '"':
			inIdent = true
			out.WriteByte(c)

		case c == ':':
			// "::" is a cast, not a placeholder.
			if i+1 < len(sql) && sql[i+1] == ':' {
				out.WriteString("::")
				i++
				continue
			}

			name, width := scanPlaceholderName(sql[i+1:])
			if width == 0 {
				out.WriteByte(c)
				continue
			}

			value, ok := params[name]
			if !ok {
				return "", nil, fmt.Errorf("postgres: placeholder :%s has no bound parameter", name)
			}
			args = append(args, value)
			out.WriteByte('?')
			i += width

		default:
			out.WriteByte(c)
		}
	}

	return out.String(), args, nil
}

// scanPlaceholderName reads a placeholder name ([A-Za-z_][A-Za-z0-9_$]*)
// from the start of s, returning the name and its length in bytes.
func scanPlaceholderName(s string) (string, int) {
	if len(s) == 0 || !isNameStart(s[0]) {
		return "", 0
	}
	end := 1
	for end < len(s) && isNameChar(s[end]) {
		end++
	}
	return s[:end], end
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '$' || (c >= '0' && c <= '9')
}
