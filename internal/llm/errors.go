package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrStreamingUnsupported is returned when the chosen provider/model cannot
// stream. The dispatcher retries the primary target once without streaming;
// comparison targets surface it as that target's error.
var ErrStreamingUnsupported = errors.New("streaming not supported by provider")

// FailureKind classifies a settled request error for propagation policy.
type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureStreamingUnsupported
	FailureUpstream
	FailureCancelled
)

// UpstreamError is a gateway response that reached the model provider and
// came back with an error. Detail, when present, is the provider's own
// nested message and takes precedence over the gateway's body message.
type UpstreamError struct {
	Status  int
	Code    string
	Message string
	Detail  string
}

// Error prefers the nested upstream detail over the body message over a
// bare status line, in that order.
func (e *UpstreamError) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("upstream error (status %d)", e.Status)
	}
}

// StreamError preserves partial content received before a stream broke.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error after %d chars: %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Classify buckets an error from a settled request. Cancellation is checked
// before anything else so a context torn down mid-stream never masquerades
// as a transport failure.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureGeneric
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return FailureCancelled
	case errors.Is(err, ErrStreamingUnsupported):
		return FailureStreamingUnsupported
	default:
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return FailureUpstream
		}
		return FailureGeneric
	}
}

// errorBody is the gateway's JSON error envelope. The upstream field nests
// the provider's own error when the gateway reached it.
type errorBody struct {
	Error struct {
		Code     string `json:"code"`
		Message  string `json:"message"`
		Upstream *struct {
			Message string `json:"message"`
		} `json:"upstream,omitempty"`
	} `json:"error"`
	Message string `json:"message"`
}

// streamingUnsupportedCode is the error code the gateway uses to signal
// that the provider cannot stream this model.
const streamingUnsupportedCode = "streaming_unsupported"

// parseErrorResponse maps a non-200 gateway response to the taxonomy.
func parseErrorResponse(status int, body []byte) error {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		msg := parsed.Error.Message
		if msg == "" {
			msg = parsed.Message
		}
		if parsed.Error.Code == streamingUnsupportedCode {
			if msg != "" {
				return fmt.Errorf("%w: %s", ErrStreamingUnsupported, msg)
			}
			return ErrStreamingUnsupported
		}
		ue := &UpstreamError{Status: status, Code: parsed.Error.Code, Message: msg}
		if parsed.Error.Upstream != nil {
			ue.Detail = parsed.Error.Upstream.Message
		}
		if ue.Message != "" || ue.Detail != "" {
			return ue
		}
	}
	if status == http.StatusNotImplemented {
		return ErrStreamingUnsupported
	}
	return fmt.Errorf("gateway returned status %d: %s", status, string(body))
}
