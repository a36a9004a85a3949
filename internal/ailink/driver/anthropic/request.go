package anthropic

import (
	"fmt"
	"strings"

	"github.com/dtrwidget/designassist/internal/ailink/content"
	"github.com/dtrwidget/designassist/internal/ailink/driver"
)

const defaultMaxTokens = 4096

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

func buildMessagesRequest(req *driver.Request) (*messagesRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	messages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &messagesRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  messages,
	}, nil
}

func convertMessages(messages []content.Message) ([]message, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}
	result := make([]message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "system" {
			return nil, fmt.Errorf("system instructions belong in Request.System")
		}
		blocks, err := convertContent(msg.Content)
		if err != nil {
			return nil, err
		}
		result = append(result, message{Role: msg.Role, Content: blocks})
	}
	return result, nil
}

func convertContent(blocks []content.ContentBlock) ([]contentBlock, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("message content is required")
	}

	converted := make([]contentBlock, 0, len(blocks))
	for _, block := range blocks {
		switch block.Type {
		case content.ContentTypeText:
			converted = append(converted, contentBlock{Type: "text", Text: block.Text})
		case content.ContentTypeImage:
			if block.Data == "" || block.MediaType == "" {
				return nil, fmt.Errorf("image block requires media type and data")
			}
			converted = append(converted, contentBlock{
				Type: "image",
				Source: &imageSource{
					Type:      "base64",
					MediaType: block.MediaType,
					Data:      block.Data,
				},
			})
		default:
			return nil, fmt.Errorf("unsupported content type: %s", block.Type)
		}
	}
	return converted, nil
}
