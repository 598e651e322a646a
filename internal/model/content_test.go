package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/model"
)

func TestContent_TextNormalization(t *testing.T) {
	assert.Equal(t, "hello", model.TextContent("hello").Text())

	parts := model.PartsContent([]model.Part{
		{Type: model.PartText, Text: "hello "},
		{Type: model.PartImage, URL: "http://example.com/a.png"},
		{Type: model.PartText, Text: "world"},
	})
	assert.Equal(t, "hello world", parts.Text())
}

func TestContent_Empty(t *testing.T) {
	assert.True(t, model.Content{}.Empty())
	assert.True(t, model.TextContent("  \n").Empty())
	assert.False(t, model.TextContent("x").Empty())

	assert.True(t, model.PartsContent([]model.Part{{Type: model.PartText, Text: " "}}).Empty())
	// A non-text part is content even without any text.
	assert.False(t, model.PartsContent([]model.Part{{Type: model.PartImage, URL: "u"}}).Empty())
}

func TestContent_AppendDoesNotMutateReceiver(t *testing.T) {
	base := model.TextContent("hel")
	grown := base.Append("lo")

	assert.Equal(t, "hel", base.Text())
	assert.Equal(t, "hello", grown.Text())
}

func TestContent_AppendToParts(t *testing.T) {
	base := model.PartsContent([]model.Part{
		{Type: model.PartImage, URL: "u"},
	})
	grown := base.Append("caption").Append(" text")

	require.Len(t, grown.Parts(), 2)
	assert.Equal(t, "caption text", grown.Text())
	// The original part list is untouched.
	require.Len(t, base.Parts(), 1)
}

func TestContent_JSONRoundTrip(t *testing.T) {
	t.Run("plain string", func(t *testing.T) {
		raw, err := json.Marshal(model.TextContent("hi"))
		require.NoError(t, err)
		assert.Equal(t, `"hi"`, string(raw))

		var back model.Content
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.False(t, back.IsParts())
		assert.Equal(t, "hi", back.Text())
	})

	t.Run("part array", func(t *testing.T) {
		content := model.PartsContent([]model.Part{
			{Type: model.PartText, Text: "look:"},
			{Type: model.PartImage, URL: "http://example.com/a.png", MIME: "image/png"},
		})
		raw, err := json.Marshal(content)
		require.NoError(t, err)

		var back model.Content
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.True(t, back.IsParts())
		require.Len(t, back.Parts(), 2)
		assert.Equal(t, "image/png", back.Parts()[1].MIME)
	})
}
