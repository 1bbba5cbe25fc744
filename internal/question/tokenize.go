package question

import (
	"strings"

	"sql-playground/internal/model"
)

// tokenizeRow splits a data line on spaces and tabs, except inside quotes.
// Either quote character toggles the quoted state and stays in the token, so
// 'Keyboard Pro' is one token. An unbalanced quote is not an error: the rest
// of the line simply stays in one token.
func tokenizeRow(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if tok := strings.TrimSpace(current.String()); tok != "" {
			tokens = append(tokens, tok)
		}
		current.Reset()
	}

	for _, r := range line {
		switch {
		case r == '\'' || r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case (r == ' ' || r == '\t') && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// normalizeRowWidth pads a row with nils or truncates it to width. Extra
// values are dropped silently.
func normalizeRowWidth(values []model.Value, width int) model.Row {
	row := make(model.Row, width)
	copy(row, values)
	return row
}

// parseRow tokenizes a data line and fits it to the column count.
func parseRow(line string, width int) model.Row {
	tokens := tokenizeRow(line)
	values := make([]model.Value, len(tokens))
	for i, tok := range tokens {
		values[i] = parseValue(tok)
	}
	return normalizeRowWidth(values, width)
}

// parseRows parses every non-separator line as a data row.
func parseRows(lines []string, width int) []model.Row {
	rows := make([]model.Row, 0, len(lines))
	for _, line := range lines {
		if isSeparatorLine(line) || strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, parseRow(line, width))
	}
	return rows
}
