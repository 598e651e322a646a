package service

import (
	"context"
	"log/slog"

	"parley/internal/llm"
	"parley/internal/model"
)

// targetOptions parameterizes one dispatched request. An empty target means
// the primary model; anything else is a provider-qualified comparison key.
type targetOptions struct {
	target       string
	providerID   string
	modelID      string
	systemPrompt string
	toolsEnabled bool
	tools        []string
	reasoning    string
}

// dispatchTarget runs one model request to completion against the turn.
//
// Failure policy: a comparison failure settles only its own result and
// returns nil so sibling targets keep streaming. A primary failure settles
// the turn error and is returned, which tears down the shared context and
// with it every sibling. Cancellation settles cleanly on both paths.
//
// The primary target gets one retry without streaming when the gateway
// reports the provider cannot stream; comparison targets do not, since a
// side-by-side answer that cannot stream is not worth a second request.
func dispatchTarget(ctx context.Context, provider llm.Provider, turn *Turn, opt targetOptions) error {
	isPrimary := opt.target == ""

	messages := turn.Messages()
	// The trailing assistant placeholder is this turn's output, not input.
	history := BuildHistory(messages[:len(messages)-1], opt.target, isPrimary)

	req := &llm.ChatRequest{
		Messages:        history,
		Model:           opt.modelID,
		ProviderID:      opt.providerID,
		ToolsEnabled:    opt.toolsEnabled,
		Tools:           opt.tools,
		ReasoningEffort: opt.reasoning,
		SystemPrompt:    opt.systemPrompt,
		RequestID:       model.NewID(),
	}
	if isPrimary {
		req.ConversationID = turn.ConversationID()
	} else {
		if linked, ok := turn.LinkedFor(opt.target); ok {
			req.ConversationID = linked
		}
		req.ParentConversationID = turn.ConversationID()
	}
	turn.RegisterRequest(opt.target, req.RequestID)

	result, err := streamOnce(ctx, provider, turn, opt.target, req)
	if err != nil && isPrimary && llm.Classify(err) == llm.FailureStreamingUnsupported {
		slog.Info("provider cannot stream, retrying without streaming",
			"model", opt.modelID, "provider", opt.providerID)
		result, err = provider.Chat(ctx, req)
	}
	if err != nil {
		kind := llm.Classify(err)
		turn.FailTarget(opt.target, kind, err)
		if kind == llm.FailureCancelled {
			return nil
		}
		if isPrimary {
			slog.Error("primary target failed", "model", opt.modelID, "error", err)
			return err
		}
		slog.Warn("comparison target failed", "target", opt.target, "error", err)
		return nil
	}

	turn.CompleteTarget(opt.target, result)
	return nil
}

// streamOnce opens the stream and folds every event into the turn until the
// channel closes. The apply goroutine drains the channel even after an
// error so ChatStream's close never blocks.
func streamOnce(ctx context.Context, provider llm.Provider, turn *Turn, target string, req *llm.ChatRequest) (*llm.ChatResult, error) {
	ch := make(chan llm.StreamEvent, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			turn.Apply(target, ev)
		}
	}()

	result, err := provider.ChatStream(ctx, req, ch)
	<-done
	return result, err
}
