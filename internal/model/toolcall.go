package model

import "strings"

// ToolCall is the in-progress, merged representation of one tool call being
// assembled from streamed fragments. Arguments grow by concatenation;
// TextOffset records how much text content had accumulated when the call
// was first observed, anchoring where in the rendered text the call was
// requested (a rendering hint, not an execution ordering).
type ToolCall struct {
	ID         string           `json:"id,omitempty"`
	Index      int              `json:"index"`
	Type       string           `json:"type,omitempty"`
	Function   ToolCallFunction `json:"function"`
	TextOffset int              `json:"text_offset"`
}

// ToolCallFunction is the function name plus the argument JSON assembled so
// far. Arguments is a plain string because fragments are not valid JSON on
// their own.
type ToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments"`
}

// ToolCallDelta is one streamed fragment of a tool call. Any field may be
// absent; Index is the only one guaranteed by the transport.
type ToolCallDelta struct {
	ID       string           `json:"id,omitempty"`
	Index    int              `json:"index"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// ToolOutput is the result of one executed tool call, delivered by the
// backend as a discrete event.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Output     string `json:"output"`
	IsError    bool   `json:"is_error,omitempty"`
}

// MergeToolCallDelta folds a fragment into an ordered accumulator list and
// returns a new list; the input is never mutated, so the same function
// serves the primary message and every comparison result identically.
//
// A fragment resolves to an existing accumulator by id first, then by
// index; otherwise it starts a new one. id, type, index and the function
// name are overwritten when the fragment carries them, which makes
// duplicate delivery idempotent. TextOffset is set once, at first
// observation, from textLen.
func MergeToolCallDelta(existing []ToolCall, delta ToolCallDelta, textLen int) []ToolCall {
	merged := make([]ToolCall, len(existing))
	copy(merged, existing)

	at := -1
	if delta.ID != "" {
		for i := range merged {
			if merged[i].ID == delta.ID {
				at = i
				break
			}
		}
	}
	if at < 0 {
		for i := range merged {
			if merged[i].Index == delta.Index {
				at = i
				break
			}
		}
	}

	if at < 0 {
		return append(merged, ToolCall{
			ID:         delta.ID,
			Index:      delta.Index,
			Type:       delta.Type,
			Function:   ToolCallFunction{Name: delta.Function.Name, Arguments: delta.Function.Arguments},
			TextOffset: textLen,
		})
	}

	call := merged[at]
	if delta.ID != "" {
		call.ID = delta.ID
	}
	if delta.Type != "" {
		call.Type = delta.Type
	}
	call.Index = delta.Index
	if delta.Function.Name != "" {
		call.Function.Name = delta.Function.Name
	}
	call.Function.Arguments = mergeArguments(call.Function.Arguments, delta.Function.Arguments)
	merged[at] = call
	return merged
}

// mergeArguments grows the accumulated argument string. When the new
// fragment already contains the old string as a prefix the transport resent
// from the start, so the new string replaces the old; otherwise the
// fragment is appended. Either way no accumulated character is dropped.
//
// Transport assumption: fragments are either pure continuations or resends
// from the very start of the argument string. A transport that resends
// overlapping-but-not-prefix ranges would corrupt arguments here; that case
// is deliberately not guessed around.
func mergeArguments(old, incoming string) string {
	if old != "" && incoming != "" && strings.HasPrefix(incoming, old) {
		return incoming
	}
	return old + incoming
}

// AppendToolOutput adds an output to the list, deduplicating by tool-call
// id when present and by tool name otherwise (early outputs can arrive
// before the call's id fragment has). A duplicate replaces its predecessor.
// Returns a new list; the input is not mutated.
func AppendToolOutput(existing []ToolOutput, out ToolOutput) []ToolOutput {
	merged := make([]ToolOutput, len(existing))
	copy(merged, existing)

	for i := range merged {
		if out.ToolCallID != "" && merged[i].ToolCallID == out.ToolCallID {
			merged[i] = out
			return merged
		}
		if out.ToolCallID == "" && out.Name != "" && merged[i].Name == out.Name {
			merged[i] = out
			return merged
		}
	}
	return append(merged, out)
}
