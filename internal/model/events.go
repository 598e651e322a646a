package model

// TurnEvent is one chunk of the outbound turn stream. It is the flattened,
// JSON-friendly projection of everything a turn can report: text deltas,
// tool activity, usage, conversation identity, per-target status flips and
// the terminal marker. Target carries the provider-qualified model id for
// comparison traffic and is empty for the primary.
type TurnEvent struct {
	Type           string      `json:"type"`
	TurnID         string      `json:"turn_id,omitempty"`
	MessageID      string      `json:"message_id,omitempty"`
	Target         string      `json:"target,omitempty"`
	Content        string      `json:"content,omitempty"`
	ToolCall       *ToolCall   `json:"tool_call,omitempty"`
	ToolOutput     *ToolOutput `json:"tool_output,omitempty"`
	Usage          *Usage      `json:"usage,omitempty"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Title          string      `json:"title,omitempty"`
	Status         string      `json:"status,omitempty"`
	Error          string      `json:"error,omitempty"`
	Done           bool        `json:"done,omitempty"`
}

// TurnEvent types.
const (
	EventText         = "text"
	EventToolCall     = "tool_call"
	EventToolOutput   = "tool_output"
	EventUsage        = "usage"
	EventConversation = "conversation"
	EventStatus       = "status"
	EventError        = "error"
	EventDone         = "done"
)
