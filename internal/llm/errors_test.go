package llm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"parley/internal/llm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want llm.FailureKind
	}{
		{"nil", nil, llm.FailureGeneric},
		{"cancelled", context.Canceled, llm.FailureCancelled},
		{"deadline", context.DeadlineExceeded, llm.FailureCancelled},
		{"wrapped cancelled", fmt.Errorf("request failed: %w", context.Canceled), llm.FailureCancelled},
		{"streaming unsupported", llm.ErrStreamingUnsupported, llm.FailureStreamingUnsupported},
		{"wrapped streaming unsupported", fmt.Errorf("%w: model x", llm.ErrStreamingUnsupported), llm.FailureStreamingUnsupported},
		{"upstream", &llm.UpstreamError{Status: 502, Message: "boom"}, llm.FailureUpstream},
		{"generic", errors.New("boom"), llm.FailureGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.Classify(tt.err))
		})
	}
}

func TestClassify_CancellationWinsOverStreamError(t *testing.T) {
	// A stream torn down by cancellation must not look like a transport
	// failure, even when wrapped with partial content.
	err := &llm.StreamError{Partial: "some text", Err: context.Canceled}
	assert.Equal(t, llm.FailureCancelled, llm.Classify(err))
}

func TestStreamError_MessageIncludesPartialLength(t *testing.T) {
	err := &llm.StreamError{Partial: "12345", Err: errors.New("connection reset")}
	assert.Contains(t, err.Error(), "5 chars")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUpstreamError_MessagePrecedence(t *testing.T) {
	assert.Equal(t, "detail", (&llm.UpstreamError{Status: 500, Message: "msg", Detail: "detail"}).Error())
	assert.Equal(t, "msg", (&llm.UpstreamError{Status: 500, Message: "msg"}).Error())
	assert.Equal(t, "upstream error (status 500)", (&llm.UpstreamError{Status: 500}).Error())
}
