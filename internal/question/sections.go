package question

import (
	"regexp"
	"strings"
)

var outputHeading = regexp.MustCompile(`(?i)output\s*:`)

type sections struct {
	input     string
	output    string
	hasOutput bool
}

// splitSections cuts the text at the first "output:" (any case). The marker
// itself belongs to the output section.
func splitSections(text string) sections {
	loc := outputHeading.FindStringIndex(text)
	if loc == nil {
		return sections{input: strings.TrimSpace(text)}
	}
	return sections{
		input:     strings.TrimSpace(text[:loc[0]]),
		output:    strings.TrimSpace(text[loc[0]:]),
		hasOutput: true,
	}
}
