package model

import (
	"encoding/json"
	"strings"
)

// Part kinds for multi-part content.
const (
	PartText  = "text"
	PartImage = "image"
	PartAudio = "audio"
)

// Part is one typed element of multi-part message content. Image and audio
// parts reference already-encoded attachments by URL; building those values
// is the content builder's job, not ours.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
	MIME string `json:"mime_type,omitempty"`
}

// Content is a tagged union: either a plain string or an ordered list of
// typed parts. On the wire it serializes as a bare JSON string or a JSON
// array, matching what the gateway produces and consumes. The zero value is
// empty text content.
type Content struct {
	text  string
	parts []Part
}

// TextContent returns plain string content.
func TextContent(s string) Content {
	return Content{text: s}
}

// PartsContent returns multi-part content.
func PartsContent(parts []Part) Content {
	return Content{parts: parts}
}

// IsParts reports whether the content is the multi-part variant.
func (c Content) IsParts() bool {
	return c.parts != nil
}

// Parts returns the part list, or nil for plain text content.
func (c Content) Parts() []Part {
	return c.parts
}

// Text is the single normalization point for the union: the string itself
// for text content, the concatenated text parts otherwise.
func (c Content) Text() string {
	if c.parts == nil {
		return c.text
	}
	var b strings.Builder
	for _, p := range c.parts {
		if p.Type == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Empty reports whether the content has no text and no non-text parts.
func (c Content) Empty() bool {
	if c.parts == nil {
		return strings.TrimSpace(c.text) == ""
	}
	for _, p := range c.parts {
		if p.Type != PartText || strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

// Append returns the content with a text delta appended. For multi-part
// content the delta extends the trailing text part, or starts one. The
// receiver is not modified.
func (c Content) Append(delta string) Content {
	if delta == "" {
		return c
	}
	if c.parts == nil {
		return Content{text: c.text + delta}
	}
	parts := make([]Part, len(c.parts))
	copy(parts, c.parts)
	if n := len(parts); n > 0 && parts[n-1].Type == PartText {
		parts[n-1].Text += delta
	} else {
		parts = append(parts, Part{Type: PartText, Text: delta})
	}
	return Content{parts: parts}
}

// MarshalJSON writes a bare string or a part array.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.parts != nil {
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON accepts either wire form.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var parts []Part
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = Content{parts: parts}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Content{text: s}
	return nil
}
