package service

import (
	"parley/internal/llm"
	"parley/internal/model"
)

// BuildHistory produces the outgoing message list for one target.
//
// The primary model sees the true history verbatim. A comparison model sees
// its own prior comparison content substituted for each assistant message
// and never sees another model's output; tool-role messages are dropped for
// it because tool results reach downstream models only through the merge
// onto their owning assistant message. Assistant entries whose substituted
// payload is empty (no text, no tool calls, no tool outputs) are skipped so
// placeholder turns never enter a model's context.
func BuildHistory(source []model.Message, target string, isPrimary bool) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(source))
	for _, msg := range source {
		if isPrimary {
			out = append(out, llm.ChatMessage{
				ID:          msg.ID,
				Role:        msg.Role,
				Content:     msg.Content,
				ToolCalls:   msg.ToolCalls,
				ToolOutputs: msg.ToolOutputs,
			})
			continue
		}

		switch msg.Role {
		case model.RoleAssistant:
			res, ok := msg.ComparisonResults[target]
			if !ok || res.Empty() {
				continue
			}
			out = append(out, llm.ChatMessage{
				ID:          msg.ID,
				Role:        model.RoleAssistant,
				Content:     res.Content,
				ToolCalls:   res.ToolCalls,
				ToolOutputs: res.ToolOutputs,
			})
		case model.RoleTool:
			continue
		default:
			out = append(out, llm.ChatMessage{
				ID:      msg.ID,
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}
	return out
}

// UpsertUserMessage appends the user message to the list, or replaces it in
// place when a message with the same id is already present (the edit and
// regenerate paths reuse the original id). Returns a new slice.
func UpsertUserMessage(messages []model.Message, user model.Message) []model.Message {
	out := make([]model.Message, len(messages))
	copy(out, messages)
	for i := range out {
		if out[i].ID == user.ID {
			out[i] = user
			return out
		}
	}
	return append(out, user)
}
