package content

// ContentType represents supported content types using IANA media types.
type ContentType string

const (
	ContentTypeText  ContentType = "text/plain"
	ContentTypeImage ContentType = "image/*"
)

// ContentBlock represents a single piece of content.
//
// Image blocks carry the exact media type in MediaType and the base64 payload
// in Data, exactly as received from the client.
type ContentBlock struct {
	Type      ContentType `json:"type"`
	Text      string      `json:"text,omitempty"`
	MediaType string      `json:"media_type,omitempty"`
	Data      string      `json:"data,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// ImageBlock returns an inline base64 image block.
func ImageBlock(mediaType, data string) ContentBlock {
	return ContentBlock{Type: ContentTypeImage, MediaType: mediaType, Data: data}
}

// IsText reports whether the block carries text.
func (b ContentBlock) IsText() bool {
	return b.Type == ContentTypeText
}
