package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/llm"
	"parley/internal/model"
	"parley/internal/service"
)

func newTestTurn(t *testing.T, comparisons ...string) (*service.Turn, chan model.TurnEvent) {
	t.Helper()
	events := make(chan model.TurnEvent, 256)
	turn := service.NewTurn(context.Background(), service.TurnConfig{
		ID:          "turn-1",
		UserMessage: model.Message{ID: "u1", Role: model.RoleUser, Content: model.TextContent("question")},
		AssistantID: "a1",
		Model:       "openai::gpt-4o",
		Comparisons: comparisons,
	}, events)
	return turn, events
}

func textEvent(s string) llm.StreamEvent {
	return llm.StreamEvent{Type: llm.EventText, Text: s}
}

func TestTurn_PlaceholdersCreated(t *testing.T) {
	turn, _ := newTestTurn(t, "local::llama3")

	messages := turn.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, model.RoleUser, messages[0].Role)

	assistant := messages[1]
	assert.Equal(t, "a1", assistant.ID)
	assert.Equal(t, model.RoleAssistant, assistant.Role)
	require.Contains(t, assistant.ComparisonResults, "local::llama3")
	assert.Equal(t, model.StatusStreaming, assistant.ComparisonResults["local::llama3"].Status)
}

func TestTurn_TextDeltasAccumulate(t *testing.T) {
	turn, events := newTestTurn(t)

	turn.Apply("", textEvent("Hel"))
	turn.Apply("", textEvent("lo"))

	assert.Equal(t, "Hello", turn.PrimaryMessage().Content.Text())

	ev := <-events
	assert.Equal(t, model.EventText, ev.Type)
	assert.Equal(t, "Hel", ev.Content)
	assert.Equal(t, "a1", ev.MessageID)
}

func TestTurn_ComparisonTextRoutedByTarget(t *testing.T) {
	turn, _ := newTestTurn(t, "local::llama3")

	turn.Apply("", textEvent("primary"))
	turn.Apply("local::llama3", textEvent("secondary"))

	assert.Equal(t, "primary", turn.PrimaryMessage().Content.Text())
	res, ok := turn.Comparison("local::llama3")
	require.True(t, ok)
	assert.Equal(t, "secondary", res.Content.Text())
}

func TestTurn_UnregisteredComparisonTargetIgnored(t *testing.T) {
	turn, _ := newTestTurn(t, "local::llama3")

	before := turn.Messages()
	turn.Apply("other::model", textEvent("stray"))
	after := turn.Messages()

	// A stale write leaves the message slice untouched, not rebuilt.
	assert.Same(t, &before[0], &after[0])
}

func TestTurn_EventsAfterStopIgnored(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.Apply("", textEvent("partial"))
	turn.Stop()
	turn.Apply("", textEvent(" ignored"))

	assert.Equal(t, "partial", turn.PrimaryMessage().Content.Text())
}

func TestTurn_ToolCallFragmentsMerge(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.Apply("", textEvent("Let me check."))
	turn.Apply("", llm.StreamEvent{Type: llm.EventToolCall, ToolCall: &model.ToolCallDelta{
		ID: "call_1", Index: 0, Function: model.ToolCallFunction{Name: "search", Arguments: `{"q":`},
	}})
	turn.Apply("", llm.StreamEvent{Type: llm.EventToolCall, ToolCall: &model.ToolCallDelta{
		Index: 0, Function: model.ToolCallFunction{Arguments: `"go"}`},
	}})
	turn.Apply("", llm.StreamEvent{Type: llm.EventToolOutput, ToolOutput: &model.ToolOutput{
		ToolCallID: "call_1", Output: "result",
	}})

	msg := turn.PrimaryMessage()
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, `{"q":"go"}`, msg.ToolCalls[0].Function.Arguments)
	assert.Equal(t, len("Let me check."), msg.ToolCalls[0].TextOffset)
	require.Len(t, msg.ToolOutputs, 1)
	assert.Equal(t, "result", msg.ToolOutputs[0].Output)
}

func TestTurn_UsageSetsTokenRateForPrimary(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.Apply("", llm.StreamEvent{Type: llm.EventUsage, Usage: &model.Usage{
		PromptTokens: 5, CompletionTokens: 100, TotalTokens: 105,
	}})

	usage := turn.PrimaryMessage().Usage
	require.NotNil(t, usage)
	assert.Equal(t, 100, usage.CompletionTokens)
	assert.Greater(t, usage.TokensPerSecond, 0.0)
}

func TestTurn_CompleteTarget_EstimatesUsageWhenNoneReported(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.Apply("", textEvent("twelve chars"))
	turn.CompleteTarget("", &llm.ChatResult{})

	usage := turn.PrimaryMessage().Usage
	require.NotNil(t, usage)
	assert.Equal(t, llm.EstimateTokens(model.TextContent("twelve chars")), usage.CompletionTokens)
	assert.Greater(t, usage.TokensPerSecond, 0.0)
}

func TestTurn_CompleteTarget_ReportedUsageBeatsEstimate(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.Apply("", textEvent("twelve chars"))
	turn.Apply("", llm.StreamEvent{Type: llm.EventUsage, Usage: &model.Usage{CompletionTokens: 40}})
	turn.CompleteTarget("", &llm.ChatResult{})

	usage := turn.PrimaryMessage().Usage
	require.NotNil(t, usage)
	assert.Equal(t, 40, usage.CompletionTokens)
}

func TestTurn_ConversationAdoptedOnce(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.Apply("", llm.StreamEvent{Type: llm.EventConversation, Conversation: &llm.ConversationInfo{ID: "conv-1", Title: "First"}})
	assert.Equal(t, "conv-1", turn.ConversationID())
	assert.Equal(t, "First", turn.Title())

	// Same id refreshes the title.
	turn.Apply("", llm.StreamEvent{Type: llm.EventConversation, Conversation: &llm.ConversationInfo{ID: "conv-1", Title: "Renamed"}})
	assert.Equal(t, "Renamed", turn.Title())

	// A mismatched id is dropped.
	turn.Apply("", llm.StreamEvent{Type: llm.EventConversation, Conversation: &llm.ConversationInfo{ID: "conv-2", Title: "Other"}})
	assert.Equal(t, "conv-1", turn.ConversationID())
	assert.Equal(t, "Renamed", turn.Title())
}

func TestTurn_ConversationFromComparisonIgnored(t *testing.T) {
	turn, _ := newTestTurn(t, "local::llama3")

	turn.Apply("local::llama3", llm.StreamEvent{Type: llm.EventConversation, Conversation: &llm.ConversationInfo{ID: "conv-x"}})
	assert.Empty(t, turn.ConversationID())
}

func TestTurn_CompleteTarget_FinalContentWins(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.Apply("", textEvent("streamed"))
	turn.CompleteTarget("", &llm.ChatResult{Content: model.TextContent("authoritative")})

	assert.Equal(t, "authoritative", turn.PrimaryMessage().Content.Text())
}

func TestTurn_CompleteTarget_EmptyFinalKeepsStreamed(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.Apply("", textEvent("streamed"))
	turn.CompleteTarget("", &llm.ChatResult{})

	assert.Equal(t, "streamed", turn.PrimaryMessage().Content.Text())
}

func TestTurn_CompleteComparison_BindsLinkedConversation(t *testing.T) {
	turn, _ := newTestTurn(t, "local::llama3")

	turn.Apply("local::llama3", textEvent("answer"))
	turn.CompleteTarget("local::llama3", &llm.ChatResult{ConversationID: "conv-linked"})

	res, ok := turn.Comparison("local::llama3")
	require.True(t, ok)
	assert.Equal(t, model.StatusComplete, res.Status)
	assert.Equal(t, "answer", res.Content.Text())

	linked, ok := turn.LinkedFor("local::llama3")
	require.True(t, ok)
	assert.Equal(t, "conv-linked", linked)
}

func TestTurn_ExistingLinkedConversationNotRebound(t *testing.T) {
	events := make(chan model.TurnEvent, 64)
	turn := service.NewTurn(context.Background(), service.TurnConfig{
		ID:          "turn-1",
		UserMessage: model.Message{ID: "u1", Role: model.RoleUser},
		AssistantID: "a1",
		Comparisons: []string{"local::llama3"},
		Linked:      map[string]string{"local::llama3": "conv-old"},
	}, events)

	turn.CompleteTarget("local::llama3", &llm.ChatResult{ConversationID: "conv-new"})

	linked, _ := turn.LinkedFor("local::llama3")
	assert.Equal(t, "conv-old", linked)
}

func TestTurn_ComparisonFailureIsolated(t *testing.T) {
	turn, _ := newTestTurn(t, "local::llama3", "openai::gpt-4o")

	turn.Apply("", textEvent("primary keeps going"))
	turn.FailTarget("local::llama3", llm.FailureUpstream, errors.New("quota exceeded"))

	res, _ := turn.Comparison("local::llama3")
	assert.Equal(t, model.StatusError, res.Status)
	assert.Equal(t, "quota exceeded", res.Error)

	other, _ := turn.Comparison("openai::gpt-4o")
	assert.Equal(t, model.StatusStreaming, other.Status)
	assert.NoError(t, turn.Err())
	assert.Equal(t, "primary keeps going", turn.PrimaryMessage().Content.Text())
}

func TestTurn_PrimaryFailureSetsTurnError(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.FailTarget("", llm.FailureUpstream, errors.New("boom"))
	assert.Error(t, turn.Err())
}

func TestTurn_CancelledFailureIsCleanSettle(t *testing.T) {
	turn, _ := newTestTurn(t)

	turn.Apply("", textEvent("partial"))
	turn.FailTarget("", llm.FailureCancelled, context.Canceled)

	assert.NoError(t, turn.Err())
	assert.Equal(t, "partial", turn.PrimaryMessage().Content.Text())
}

func TestTurn_SnapshotsAreStable(t *testing.T) {
	turn, _ := newTestTurn(t)

	snapshot := turn.Messages()
	before := snapshot[len(snapshot)-1].Content.Text()

	turn.Apply("", textEvent("more text"))

	// An earlier snapshot never observes later writes.
	assert.Equal(t, before, snapshot[len(snapshot)-1].Content.Text())
	assert.Equal(t, "more text", turn.PrimaryMessage().Content.Text())
}

func TestTurn_StopIsIdempotent(t *testing.T) {
	turn, _ := newTestTurn(t)
	turn.Stop()
	turn.Stop()
	assert.Error(t, turn.Context().Err())
}
