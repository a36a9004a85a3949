package engine

import (
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```(?:css)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// StripCodeFences removes a markdown code fence wrapping model output and trims
// the result. Input without fences is only trimmed.
//
// The strip is repeated until the text stops changing so that applying it to
// its own output is a no-op.
func StripCodeFences(text string) string {
	current := text
	for {
		next := stripFencesOnce(current)
		if next == current {
			return next
		}
		current = next
	}
}

func stripFencesOnce(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
