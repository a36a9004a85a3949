package output

import (
	"bytes"
	"encoding/json"

	"github.com/dtrwidget/designassist/internal/core"
)

// JSONFormatter renders a result as the same JSON object the HTTP endpoint
// returns. Stylesheet text is written unescaped so child combinators and
// quoted content stay readable.
type JSONFormatter struct {
	Indent bool
}

// FormatResult renders a generation result as JSON.
func (f *JSONFormatter) FormatResult(result *core.GenerationResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return "", err
	}

	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
