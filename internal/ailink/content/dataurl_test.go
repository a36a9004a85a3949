package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDataURLImage(t *testing.T) {
	got := ExtractDataURLImage("draw a cake data:image/png;base64,iVBORw0KGgo= more text")

	require.True(t, got.HasImage())
	assert.Equal(t, "draw a cake more text", got.Text)
	assert.Equal(t, "iVBORw0KGgo=", got.ImageData)
	assert.Equal(t, "image/png", got.ImageMIME)
}

func TestExtractDataURLImageNoMatch(t *testing.T) {
	prompt := "  make the title bold  "
	got := ExtractDataURLImage(prompt)

	assert.False(t, got.HasImage())
	assert.Equal(t, prompt, got.Text)
	assert.Empty(t, got.ImageData)
	assert.Empty(t, got.ImageMIME)
}

func TestExtractDataURLImageSubtypeWithPlus(t *testing.T) {
	got := ExtractDataURLImage("data:image/svg+xml;base64,PHN2Zz4=")

	assert.Equal(t, "image/svg+xml", got.ImageMIME)
	assert.Equal(t, "PHN2Zz4=", got.ImageData)
	assert.Empty(t, got.Text)
}

func TestExtractDataURLImageFirstMatchOnly(t *testing.T) {
	got := ExtractDataURLImage("a data:image/png;base64,AAAA b data:image/jpeg;base64,BBBB c")

	assert.Equal(t, "image/png", got.ImageMIME)
	assert.Equal(t, "AAAA", got.ImageData)
	assert.Equal(t, "a b data:image/jpeg;base64,BBBB c", got.Text)
}

func TestExtractDataURLImageRemovesRepeatedMatch(t *testing.T) {
	url := "data:image/gif;base64,R0lGOD=="
	got := ExtractDataURLImage(url + " left\n" + url + "\nright " + url)

	assert.Equal(t, "left right", got.Text)
	assert.Equal(t, "image/gif", got.ImageMIME)
}

func TestExtractDataURLImageAdjacentText(t *testing.T) {
	got := ExtractDataURLImage("before:data:image/png;base64,QUJD:after")

	assert.Equal(t, "before::after", got.Text)
}

func TestTextAndImageBlocks(t *testing.T) {
	text := TextBlock("hello")
	assert.True(t, text.IsText())

	img := ImageBlock("image/png", "QUJD")
	assert.False(t, img.IsText())
	assert.Equal(t, ContentTypeImage, img.Type)
	assert.Equal(t, "image/png", img.MediaType)
}
