package question

import (
	"regexp"
	"strings"
)

const (
	// FallbackTableName is used when the text declares no "table: name" line.
	FallbackTableName = "parsed_table"
	// DefaultTableName backs up an empty base name when building FullTableName.
	DefaultTableName = "question_table"
)

var (
	tableDeclaration = regexp.MustCompile(`(?i)table\s*:\s*([a-zA-Z_][a-zA-Z0-9_]*)`)
	wideGap          = regexp.MustCompile(`\s{2,}`)
)

// extractTableName returns the identifier from the first "table : name" line.
func extractTableName(lines []string) string {
	for _, line := range lines {
		if m := tableDeclaration.FindStringSubmatch(line); m != nil {
			return strings.TrimSuffix(m[1], ".")
		}
	}
	return FallbackTableName
}

// findHeaderLine returns the index of the input header, or -1. The header is
// the first line that is not a separator, does not mention "table", and has at
// least two whitespace-separated words.
func findHeaderLine(lines []string) int {
	for i, line := range lines {
		if classifyLine(line, tableMarker) != lineContent {
			continue
		}
		if len(strings.Fields(line)) >= 2 {
			return i
		}
	}
	return -1
}

// findOutputHeaderLine returns the index of the first output line that is
// neither a separator nor the "Output:" heading, or -1.
func findOutputHeaderLine(lines []string) int {
	for i, line := range lines {
		if classifyLine(line, outputMarker) == lineContent {
			return i
		}
	}
	return -1
}

// splitColumnNames splits a header on gaps of two or more spaces, since
// columns are laid out with wide gaps. Single spaces are only used when the
// wide-gap split finds nothing.
func splitColumnNames(header string) []string {
	var names []string
	for _, part := range wideGap.Split(header, -1) {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return strings.Fields(header)
	}
	return names
}
