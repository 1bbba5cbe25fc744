package question

import (
	"regexp"
	"strconv"
	"strings"

	"sql-playground/internal/model"
)

var (
	integerLiteral = regexp.MustCompile(`^-?\d+$`)
	floatLiteral   = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// parseValue turns one token into a cell value. Quoted tokens stay strings
// (no numeric coercion); bare integers and decimals become int64 and float64.
func parseValue(token string) model.Value {
	s := strings.TrimSpace(token)
	if s == "" {
		return nil
	}

	if quoted(s) {
		if len(s) == 1 {
			return ""
		}
		return s[1 : len(s)-1]
	}

	if integerLiteral.MatchString(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		// Out of int64 range: keep the exact literal, so the column types as
		// STRING. A float64 conversion would type it INTEGER but lose digits.
		return s
	}

	if floatLiteral.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	return s
}

func quoted(s string) bool {
	first, last := s[0], s[len(s)-1]
	return (first == '\'' && last == '\'') || (first == '"' && last == '"')
}
