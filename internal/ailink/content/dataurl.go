package content

import (
	"regexp"
	"strings"
	"unicode"
)

var dataURLPattern = regexp.MustCompile(`data:image/([\w+]+);base64,([A-Za-z0-9+/=]+)`)

// ExtractedPrompt is a prompt split into its text and an optional inline image.
// ImageData and ImageMIME are either both set or both empty.
type ExtractedPrompt struct {
	Text      string
	ImageData string
	ImageMIME string
}

// HasImage reports whether an image was found in the prompt.
func (p ExtractedPrompt) HasImage() bool {
	return p.ImageData != "" && p.ImageMIME != ""
}

// ExtractDataURLImage pulls the first data:image/...;base64 URL out of prompt.
//
// Every literal occurrence of the matched URL is removed from the text, the
// whitespace at each cut collapses to one space, and the result is trimmed.
// Without a match the prompt is returned unchanged and no image is set.
func ExtractDataURLImage(prompt string) ExtractedPrompt {
	match := dataURLPattern.FindStringSubmatch(prompt)
	if match == nil {
		return ExtractedPrompt{Text: prompt}
	}

	parts := strings.Split(prompt, match[0])
	text := parts[0]
	for _, part := range parts[1:] {
		text = joinAtCut(text, part)
	}

	return ExtractedPrompt{
		Text:      strings.TrimSpace(text),
		ImageData: match[2],
		ImageMIME: "image/" + match[1],
	}
}

func joinAtCut(left, right string) string {
	trimmedLeft := strings.TrimRightFunc(left, unicode.IsSpace)
	trimmedRight := strings.TrimLeftFunc(right, unicode.IsSpace)
	if len(trimmedLeft) == len(left) && len(trimmedRight) == len(right) {
		return left + right
	}
	if trimmedLeft == "" || trimmedRight == "" {
		return trimmedLeft + trimmedRight
	}
	return trimmedLeft + " " + trimmedRight
}
