package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role values used throughout the message model.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Comparison target statuses. A comparison result is streaming from the
// moment its placeholder is created until its request settles.
const (
	StatusStreaming = "streaming"
	StatusComplete  = "complete"
	StatusError     = "error"
)

// Chat stores metadata about a conversation.
type Chat struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	UserID         string    `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Model          string    `json:"model"`
	ConversationID string    `json:"conversation_id,omitempty"`
}

// Message stores a single message in a chat. The client generates the id
// before the backend persists it; both refer to the same logical message.
type Message struct {
	ID                string                      `json:"id"`
	ParentID          *string                     `json:"parent_id,omitempty"`
	Role              string                      `json:"role"`
	Content           Content                     `json:"content"`
	Model             *string                     `json:"model,omitempty"`
	Timestamp         time.Time                   `json:"timestamp"`
	ToolCalls         []ToolCall                  `json:"tool_calls,omitempty"`
	ToolOutputs       []ToolOutput                `json:"tool_outputs,omitempty"`
	Usage             *Usage                      `json:"usage,omitempty"`
	ComparisonResults map[string]ComparisonResult `json:"comparison_results,omitempty"`
}

// FullChat includes the chat metadata, all its messages and the linked
// conversations backing its comparison targets.
type FullChat struct {
	Chat
	Messages            []Message         `json:"messages"`
	LinkedConversations map[string]string `json:"linked_conversations,omitempty"`
}

// ComparisonResult holds one comparison target's response, stored on the
// owning assistant message and keyed by the provider-qualified model id
// ("provider::model").
type ComparisonResult struct {
	MessageID   string       `json:"message_id,omitempty"`
	Content     Content      `json:"content"`
	Usage       *Usage       `json:"usage,omitempty"`
	Status      string       `json:"status"`
	Error       string       `json:"error,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolOutputs []ToolOutput `json:"tool_outputs,omitempty"`
}

// Empty reports whether the payload carries nothing worth sending to a
// model: no text, no tool calls, no tool outputs.
func (c ComparisonResult) Empty() bool {
	return c.Content.Empty() && len(c.ToolCalls) == 0 && len(c.ToolOutputs) == 0
}

// Usage holds the token statistics reported by the backend for one request.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	TokensPerSecond  float64 `json:"tokens_per_second,omitempty"`
}

// NewID returns a client-generated message id. uuid.NewRandom only fails
// when the platform's entropy source does, in which case a timestamp plus
// a short random suffix keeps ids unique enough to correlate a turn.
func NewID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		var buf [4]byte
		_, _ = rand.Read(buf[:])
		return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(buf[:]))
	}
	return id.String()
}
