package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"parley/internal/model"
)

// maxEventSize caps a single SSE data line (64KB); anything larger is a
// protocol violation, not a legitimate delta.
const maxEventSize = 64 * 1024

// doneSentinel terminates a gateway stream after the final event.
var doneSentinel = []byte("[DONE]")

type gatewayProvider struct {
	client *http.Client
	url    string
}

// NewGatewayProvider returns a Provider speaking the gateway's HTTP+SSE
// protocol. The client carries no timeout; request lifetimes are governed
// by the caller's context, which streaming requires.
func NewGatewayProvider(url string) Provider {
	return &gatewayProvider{
		client: &http.Client{},
		url:    url,
	}
}

// ChatStream opens one streaming chat request and forwards each decoded
// event on ch, which is closed before returning. Events are applied in
// delivery order; the gateway guarantees per-connection ordering and the
// client does not reorder. The returned ChatResult collects the terminal
// state observed on the stream.
func (p *gatewayProvider) ChatStream(ctx context.Context, req *ChatRequest, ch chan<- StreamEvent) (*ChatResult, error) {
	defer close(ch)

	req.Stream = true
	resp, err := p.post(ctx, "/v1/chat", req, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &ChatResult{ConversationID: req.ConversationID}
	var accumulated bytes.Buffer

	reader := bufio.NewReader(resp.Body)
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		data, err := readEventData(reader)
		if err != nil {
			if err == io.EOF {
				return result, nil
			}
			return result, &StreamError{Partial: accumulated.String(), Err: err}
		}
		if data == nil {
			continue
		}
		if bytes.Equal(data, doneSentinel) {
			return result, nil
		}

		var wire wireEvent
		if err := json.Unmarshal(data, &wire); err != nil {
			// A single malformed event does not abort the stream.
			continue
		}
		ev, err, known := decodeEvent(wire)
		if !known || err != nil {
			continue
		}

		switch ev.Type {
		case EventText:
			accumulated.WriteString(ev.Text)
		case EventUsage:
			result.Usage = ev.Usage
		case EventConversation:
			result.ConversationID = ev.Conversation.ID
			result.Title = ev.Conversation.Title
		case EventFinal:
			result.Content = *ev.Final
		}

		select {
		case ch <- ev:
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
}

// Chat performs a non-streaming chat request. Used as the one-time retry
// path when the provider signals streaming is unsupported.
func (p *gatewayProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	req.Stream = false
	resp, err := p.post(ctx, "/v1/chat", req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result ChatResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode chat response: %w", err)
	}
	return &result, nil
}

// CreateConversation persists a conversation up-front so that all targets
// of a turn can dispatch in parallel sharing one parent id. Idempotent on
// the gateway side.
func (p *gatewayProvider) CreateConversation(ctx context.Context, req *CreateConversationRequest) (*ConversationInfo, error) {
	resp, err := p.post(ctx, "/v1/conversations", req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info ConversationInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("could not decode conversation response: %w", err)
	}
	return &info, nil
}

// ListModels fetches the gateway's model table.
func (p *gatewayProvider) ListModels(ctx context.Context) (*ModelList, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, parseErrorResponse(resp.StatusCode, body)
	}

	var list ModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("could not decode model list: %w", err)
	}
	return &list, nil
}

// StopGeneration asks the gateway to interrupt server-side work for a
// request id. Best-effort: local cancellation is authoritative and the
// caller does not depend on this succeeding.
func (p *gatewayProvider) StopGeneration(ctx context.Context, requestID string) error {
	payload := struct {
		RequestID string `json:"request_id"`
	}{RequestID: requestID}

	resp, err := p.post(ctx, "/v1/chat/stop", payload, false)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// post sends a JSON body and returns the response, mapping non-200 statuses
// through the error taxonomy.
func (p *gatewayProvider) post(ctx context.Context, path string, payload any, stream bool) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, parseErrorResponse(resp.StatusCode, body)
	}
	return resp, nil
}

// readEventData reads one SSE event and returns its data payload, nil for
// events without data (comments, keepalives), or io.EOF at end of stream.
func readEventData(reader *bufio.Reader) ([]byte, error) {
	var dataLines [][]byte
	size := 0

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(line[5:])
			size += len(data)
			if size > maxEventSize {
				return nil, fmt.Errorf("event too large: %d bytes", size)
			}
			dataLines = append(dataLines, data)
		}
		// id:, retry:, event: and comment lines are ignored.
	}
}

// EstimateTokens is the character-based token estimate used for live
// throughput display until a usage event reports the real completion count.
func EstimateTokens(content model.Content) int {
	return len(content.Text()) / 4
}
