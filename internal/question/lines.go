package question

import (
	"regexp"
	"strings"
)

// Markers that take a line out of header consideration in each section.
// Any line containing the marker is skipped, so a header column literally
// named "table" is never picked as the input header.
const (
	tableMarker  = "table"
	outputMarker = "output"
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineSeparator
	lineMarker
	lineContent
)

var separatorPattern = regexp.MustCompile(`^[=\-_]+$`)

// isSeparatorLine reports whether a line is a visual divider made of = - _ only.
func isSeparatorLine(line string) bool {
	return separatorPattern.MatchString(strings.TrimSpace(line))
}

// classifyLine tells header detection what a line is. marker is the
// case-insensitive substring that disqualifies a line in the current section.
func classifyLine(line, marker string) lineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return lineBlank
	case isSeparatorLine(trimmed):
		return lineSeparator
	case strings.Contains(strings.ToLower(trimmed), marker):
		return lineMarker
	default:
		return lineContent
	}
}

// splitLines returns the non-empty, trimmed lines of a section.
func splitLines(section string) []string {
	var lines []string
	for _, raw := range strings.Split(section, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// skipSeparators returns the index of the first non-separator line at or after start.
func skipSeparators(lines []string, start int) int {
	i := start
	for i < len(lines) && isSeparatorLine(lines[i]) {
		i++
	}
	return i
}
