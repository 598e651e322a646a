package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/llm"
	"parley/internal/model"
)

// sseServer builds a test gateway that answers /v1/chat with the given SSE
// lines, each written as one data frame.
func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
			flusher.Flush()
		}
	}))
}

func collectStream(t *testing.T, provider llm.Provider, req *llm.ChatRequest) ([]llm.StreamEvent, *llm.ChatResult, error) {
	t.Helper()
	ch := make(chan llm.StreamEvent, 64)
	result, err := provider.ChatStream(context.Background(), req, ch)
	var events []llm.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events, result, err
}

func TestChatStream_ForwardsTypedEvents(t *testing.T) {
	server := sseServer(t, []string{
		`{"type":"conversation","value":{"id":"conv-1","title":"Greetings"}}`,
		`{"type":"text","value":"Hel"}`,
		`{"type":"text","value":"lo"}`,
		`{"type":"tool_call","value":{"id":"call_1","index":0,"function":{"name":"search","arguments":"{}"}}}`,
		`{"type":"tool_output","value":{"tool_call_id":"call_1","output":"ok"}}`,
		`{"type":"usage","value":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`,
		`{"type":"final","value":"Hello"}`,
		`[DONE]`,
	})
	defer server.Close()

	provider := llm.NewGatewayProvider(server.URL)
	events, result, err := collectStream(t, provider, &llm.ChatRequest{Model: "m"})
	require.NoError(t, err)

	require.Len(t, events, 7)
	assert.Equal(t, llm.EventConversation, events[0].Type)
	assert.Equal(t, "conv-1", events[0].Conversation.ID)
	assert.Equal(t, "Hel", events[1].Text)
	assert.Equal(t, "lo", events[2].Text)
	assert.Equal(t, "call_1", events[3].ToolCall.ID)
	assert.Equal(t, "ok", events[4].ToolOutput.Output)
	assert.Equal(t, 12, events[5].Usage.TotalTokens)
	assert.Equal(t, llm.EventFinal, events[6].Type)

	// The result accumulates the terminal state seen on the stream.
	assert.Equal(t, "conv-1", result.ConversationID)
	assert.Equal(t, "Greetings", result.Title)
	assert.Equal(t, "Hello", result.Content.Text())
	require.NotNil(t, result.Usage)
	assert.Equal(t, 2, result.Usage.CompletionTokens)
}

func TestChatStream_SkipsUnknownAndMalformedEvents(t *testing.T) {
	server := sseServer(t, []string{
		`{"type":"text","value":"a"}`,
		`not json at all`,
		`{"type":"something_new","value":{"x":1}}`,
		`{"type":"text","value":"b"}`,
		`[DONE]`,
	})
	defer server.Close()

	provider := llm.NewGatewayProvider(server.URL)
	events, _, err := collectStream(t, provider, &llm.ChatRequest{Model: "m"})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Text)
	assert.Equal(t, "b", events[1].Text)
}

func TestChatStream_EOFWithoutSentinelIsClean(t *testing.T) {
	server := sseServer(t, []string{
		`{"type":"text","value":"partial"}`,
	})
	defer server.Close()

	provider := llm.NewGatewayProvider(server.URL)
	events, _, err := collectStream(t, provider, &llm.ChatRequest{Model: "m"})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestChatStream_StreamingUnsupportedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "streaming_unsupported", "message": "model cannot stream"},
		})
	}))
	defer server.Close()

	provider := llm.NewGatewayProvider(server.URL)
	_, _, err := collectStream(t, provider, &llm.ChatRequest{Model: "m"})
	assert.True(t, errors.Is(err, llm.ErrStreamingUnsupported))
}

func TestChatStream_UpstreamErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":     "provider_error",
				"message":  "gateway message",
				"upstream": map[string]any{"message": "quota exceeded"},
			},
		})
	}))
	defer server.Close()

	provider := llm.NewGatewayProvider(server.URL)
	_, _, err := collectStream(t, provider, &llm.ChatRequest{Model: "m"})

	var ue *llm.UpstreamError
	require.True(t, errors.As(err, &ue))
	// The nested upstream detail takes precedence in the message.
	assert.Equal(t, "quota exceeded", ue.Error())
	assert.Equal(t, http.StatusBadGateway, ue.Status)
}

func TestChat_NonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		_ = json.NewEncoder(w).Encode(llm.ChatResult{
			Content:        model.TextContent("answer"),
			ConversationID: "conv-9",
		})
	}))
	defer server.Close()

	provider := llm.NewGatewayProvider(server.URL)
	result, err := provider.Chat(context.Background(), &llm.ChatRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "answer", result.Content.Text())
	assert.Equal(t, "conv-9", result.ConversationID)
}

func TestCreateConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/conversations", r.URL.Path)
		_ = json.NewEncoder(w).Encode(llm.ConversationInfo{ID: "conv-new", Title: "t"})
	}))
	defer server.Close()

	provider := llm.NewGatewayProvider(server.URL)
	info, err := provider.CreateConversation(context.Background(), &llm.CreateConversationRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "conv-new", info.ID)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, llm.EstimateTokens(model.TextContent("abc")))
	assert.Equal(t, 3, llm.EstimateTokens(model.TextContent("twelve chars")))
}
