package output

import (
	"fmt"
	"strings"

	"github.com/dtrwidget/designassist/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatCSS      Format = "css"
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders generation results.
type Formatter interface {
	FormatResult(result *core.GenerationResult) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatCSS):
		return FormatCSS, nil
	case string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &CSSFormatter{}
	}
}

// CSSFormatter writes the stylesheet as-is.
type CSSFormatter struct{}

// FormatResult renders the stylesheet text.
func (f *CSSFormatter) FormatResult(result *core.GenerationResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return result.CSS, nil
}
