package translate

import (
	"strings"

	"github.com/user/datalake/internal/types"
)

// Guard checks the shape of generated SQL before it reaches the warehouse.
// It removes leading comments and one trailing semicolon, and rejects empty
// text, multiple statements, and anything that is not a SELECT (or WITH ...
// SELECT). It does not parse SQL beyond quote and comment tracking.
func Guard(sql string) (string, error) {
	s := strings.TrimSpace(stripLeadingComments(sql))
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return "", types.Errorf(types.KindValidation, "guard", "generated SQL is empty")
	}
	if hasStatementSeparator(s) {
		return "", types.Errorf(types.KindValidation, "guard", "generated SQL contains more than one statement")
	}

	first := strings.ToUpper(firstWord(s))
	if first != "SELECT" && first != "WITH" {
		return "", types.Errorf(types.KindValidation, "guard", "generated SQL must start with SELECT, got %q", first)
	}
	return s, nil
}

func stripLeadingComments(s string) string {
	for {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = s[i+2:]
		default:
			return s
		}
	}
}

// hasStatementSeparator reports whether s contains a semicolon outside of
// quoted strings, identifiers and comments.
func hasStatementSeparator(s string) bool {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return false
			}
			i += nl
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += end + 3
		case c == ';':
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '('
	})
	if end < 0 {
		return s
	}
	return s[:end]
}
