package driver

import (
	"context"

	"github.com/dtrwidget/designassist/internal/ailink/content"
)

// Driver defines the interface for AI completion providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "anthropic").
	Name() string
	// Capabilities returns what this driver supports.
	Capabilities() Capabilities
}

// Capabilities describes driver features.
type Capabilities struct {
	SupportsImages    bool
	SupportsStreaming bool
	SupportedModels   []string
}

// Usage contains token usage statistics.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model      string
	System     string
	Messages   []content.Message
	MaxTokens  int
	PromptSlug string
	Metadata   map[string]string
}

// Response is a provider-agnostic completion response.
type Response struct {
	ID         string
	Model      string
	Content    []content.ContentBlock
	StopReason string
	Usage      *Usage
}

// Text concatenates the text blocks of the response in order.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var text string
	for _, block := range r.Content {
		if block.IsText() {
			text += block.Text
		}
	}
	return text
}
