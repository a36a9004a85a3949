package output

import (
	"fmt"
	"strings"

	"github.com/dtrwidget/designassist/internal/core"
)

// MarkdownFormatter renders the stylesheet as a fenced css block followed by
// a rule summary table.
type MarkdownFormatter struct{}

// FormatResult renders a generation result as Markdown.
func (f *MarkdownFormatter) FormatResult(result *core.GenerationResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("```css\n")
	sb.WriteString(result.CSS)
	if !strings.HasSuffix(result.CSS, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")

	rules := SplitRules(result.CSS)
	if len(rules) > 0 {
		sb.WriteString("\n| Selector | Declarations |\n")
		sb.WriteString("|----------|--------------|\n")
		for _, rule := range rules {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", escapeMarkdownCell(rule.Selector), len(rule.Declarations)))
		}
	}

	if result.Explanation != nil && strings.TrimSpace(*result.Explanation) != "" {
		sb.WriteString("\n" + strings.TrimSpace(*result.Explanation) + "\n")
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	return strings.ReplaceAll(value, "\n", " ")
}
