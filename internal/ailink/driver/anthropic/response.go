package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dtrwidget/designassist/internal/ailink/content"
	"github.com/dtrwidget/designassist/internal/ailink/driver"
)

type messagesResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Model      string          `json:"model"`
	Content    []responseBlock `json:"content"`
	StopReason string          `json:"stop_reason"`
	Usage      *usage          `json:"usage,omitempty"`
}

type responseBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func toDriverResponse(resp *messagesResponse) (*driver.Response, error) {
	if resp == nil {
		return nil, fmt.Errorf("empty response")
	}

	blocks := make([]content.ContentBlock, 0, len(resp.Content))
	for _, block := range resp.Content {
		if block.Type == "text" {
			blocks = append(blocks, content.TextBlock(block.Text))
			continue
		}
		// Non-text blocks (tool_use, thinking) keep their provider type.
		blocks = append(blocks, content.ContentBlock{Type: content.ContentType(block.Type)})
	}

	response := &driver.Response{
		ID:         resp.ID,
		Model:      resp.Model,
		Content:    blocks,
		StopReason: resp.StopReason,
	}
	if resp.Usage != nil {
		response.Usage = &driver.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		}
	}
	return response, nil
}

// errorMessage extracts error.message from an API error body, falling back to
// the trimmed body text.
func errorMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		if parsed.Error.Type != "" {
			return parsed.Error.Type + ": " + parsed.Error.Message
		}
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(body))
}
