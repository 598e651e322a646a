package llm

import (
	"context"
	"encoding/json"
	"time"

	"parley/internal/model"
)

// EventType discriminates the inbound stream union. The set is closed: the
// gateway sends nothing else, and unknown types are skipped by the reader.
type EventType string

const (
	EventText         EventType = "text"
	EventToolCall     EventType = "tool_call"
	EventToolOutput   EventType = "tool_output"
	EventUsage        EventType = "usage"
	EventConversation EventType = "conversation"
	EventFinal        EventType = "final"
)

// StreamEvent is one decoded event from a gateway stream. Exactly one
// payload field is set, matching Type.
type StreamEvent struct {
	Type         EventType
	Text         string
	ToolCall     *model.ToolCallDelta
	ToolOutput   *model.ToolOutput
	Usage        *model.Usage
	Conversation *ConversationInfo
	Final        *model.Content
}

// ConversationInfo is the payload of a conversation event: the identity the
// gateway assigned to a newly created (or re-titled) conversation.
type ConversationInfo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one entry of the outgoing history.
type ChatMessage struct {
	ID          string             `json:"id,omitempty"`
	Role        string             `json:"role"`
	Content     model.Content      `json:"content"`
	ToolCalls   []model.ToolCall   `json:"tool_calls,omitempty"`
	ToolOutputs []model.ToolOutput `json:"tool_outputs,omitempty"`
}

// ChatRequest is the outgoing request payload for one target.
type ChatRequest struct {
	Messages             []ChatMessage `json:"messages"`
	Model                string        `json:"model"`
	ProviderID           string        `json:"provider_id"`
	Stream               bool          `json:"stream"`
	ConversationID       string        `json:"conversation_id,omitempty"`
	ParentConversationID string        `json:"parent_conversation_id,omitempty"`
	ToolsEnabled         bool          `json:"tools_enabled"`
	Tools                []string      `json:"tools,omitempty"`
	ReasoningEffort      string        `json:"reasoning_effort,omitempty"`
	SystemPrompt         string        `json:"system_prompt,omitempty"`
	RequestID            string        `json:"request_id"`
}

// ChatResult is the terminal outcome of one request: the authoritative
// final content plus whatever identity and accounting the gateway reported.
// For streaming requests it is assembled while the events are forwarded.
type ChatResult struct {
	Content        model.Content `json:"content"`
	Usage          *model.Usage  `json:"usage,omitempty"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Title          string        `json:"title,omitempty"`
}

// CreateConversationRequest asks the gateway to persist a conversation
// up-front so parallel dispatch has a parent id to share.
type CreateConversationRequest struct {
	Title    string `json:"title,omitempty"`
	Model    string `json:"model"`
	ParentID string `json:"parent_id,omitempty"`
}

// ModelList is the gateway's model table.
type ModelList struct {
	Models []ModelEntry `json:"models"`
}

// ModelEntry maps one model id to the provider serving it.
type ModelEntry struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`
	Name       string `json:"name,omitempty"`
}

// Provider is the client-side contract for a model-serving gateway.
//
// ChatStream delivers decoded events on ch in arrival order and closes it
// before returning; the returned ChatResult is the settled terminal state.
// Chat is the non-streaming fallback used when a provider cannot stream.
// StopGeneration is the best-effort out-of-band interrupt; local
// cancellation stays authoritative regardless of its outcome.
type Provider interface {
	ChatStream(ctx context.Context, req *ChatRequest, ch chan<- StreamEvent) (*ChatResult, error)
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)
	CreateConversation(ctx context.Context, req *CreateConversationRequest) (*ConversationInfo, error)
	ListModels(ctx context.Context) (*ModelList, error)
	StopGeneration(ctx context.Context, requestID string) error
}

// wireEvent is the envelope the gateway puts on each SSE data line.
type wireEvent struct {
	Type  EventType       `json:"type"`
	Value json.RawMessage `json:"value"`
}

// decodeEvent maps a wire envelope to a typed StreamEvent. Unknown types
// return ok=false and are skipped by the caller.
func decodeEvent(w wireEvent) (StreamEvent, error, bool) {
	ev := StreamEvent{Type: w.Type}
	var err error
	switch w.Type {
	case EventText:
		err = json.Unmarshal(w.Value, &ev.Text)
	case EventToolCall:
		ev.ToolCall = &model.ToolCallDelta{}
		err = json.Unmarshal(w.Value, ev.ToolCall)
	case EventToolOutput:
		ev.ToolOutput = &model.ToolOutput{}
		err = json.Unmarshal(w.Value, ev.ToolOutput)
	case EventUsage:
		ev.Usage = &model.Usage{}
		err = json.Unmarshal(w.Value, ev.Usage)
	case EventConversation:
		ev.Conversation = &ConversationInfo{}
		err = json.Unmarshal(w.Value, ev.Conversation)
	case EventFinal:
		ev.Final = &model.Content{}
		err = json.Unmarshal(w.Value, ev.Final)
	default:
		return StreamEvent{}, nil, false
	}
	return ev, err, true
}
