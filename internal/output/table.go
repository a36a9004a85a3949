package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dtrwidget/designassist/internal/core"
)

// TableFormatter renders the rules of a stylesheet as a table.
type TableFormatter struct{}

// FormatResult renders one row per top-level rule.
func (f *TableFormatter) FormatResult(result *core.GenerationResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Selector", "Declarations"})

	rules := SplitRules(result.CSS)
	for _, rule := range rules {
		t.AppendRow(table.Row{rule.Selector, strings.Join(rule.Declarations, ";\n")})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d rules", len(rules)),
		fmt.Sprintf("%d bytes", len(result.CSS)),
	})

	return t.Render(), nil
}

// KeyValue is one row of a key/value section.
type KeyValue struct {
	Key   string
	Value string
}

// Section groups key/value rows under a title.
type Section struct {
	Title string
	Rows  []KeyValue
}

// RenderSections renders sections as a single table with a title row per section.
func RenderSections(sections []Section) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	for i, section := range sections {
		if i > 0 {
			t.AppendSeparator()
		}
		t.AppendRow(table.Row{strings.ToUpper(section.Title), ""})
		for _, row := range section.Rows {
			t.AppendRow(table.Row{"  " + row.Key, row.Value})
		}
	}

	return t.Render()
}
