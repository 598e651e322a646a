package service

import (
	"context"
	"sync"
	"time"

	"parley/internal/llm"
	"parley/internal/model"
)

// Turn is the ephemeral state of one user submission: the user message, the
// primary assistant placeholder and zero or more comparison placeholders,
// sharing one cancellation token and one turn id.
//
// N target streams feed a turn concurrently. Every mutation goes through
// one mutex and rebuilds the message slice copy-on-write, so the discipline
// is "last write visible, stale write ignored" rather than read-modify-write
// interleaving: an event addressed to a superseded message id, a stopped
// turn or an unregistered comparison target is a no-op, never an error.
type Turn struct {
	mu sync.Mutex

	id             string
	conversationID string
	title          string

	messages    []model.Message
	primaryID   string
	userID      string
	comparisons map[string]bool

	requestIDs map[string]string
	linked     map[string]string

	startedAt time.Time
	usageSeen bool
	err       error
	settled   bool

	ctx    context.Context
	cancel context.CancelFunc
	events chan<- model.TurnEvent
}

// TurnConfig carries everything needed to start a turn. History is the
// conversation so far; the user message is upserted into it (replacing an
// existing entry with the same id on the regenerate/edit path) and the
// assistant placeholder is appended after it.
type TurnConfig struct {
	ID             string
	ConversationID string
	Title          string
	History        []model.Message
	UserMessage    model.Message
	AssistantID    string
	Model          string
	Comparisons    []string
	Linked         map[string]string
}

// NewTurn builds the turn state and emits the placeholder events. The
// returned context governs every request dispatched for this turn.
func NewTurn(parent context.Context, cfg TurnConfig, events chan<- model.TurnEvent) *Turn {
	ctx, cancel := context.WithCancel(parent)

	comparisons := make(map[string]bool, len(cfg.Comparisons))
	results := make(map[string]model.ComparisonResult, len(cfg.Comparisons))
	for _, target := range cfg.Comparisons {
		comparisons[target] = true
		results[target] = model.ComparisonResult{Status: model.StatusStreaming}
	}

	assistant := model.Message{
		ID:        cfg.AssistantID,
		ParentID:  &cfg.UserMessage.ID,
		Role:      model.RoleAssistant,
		Model:     &cfg.Model,
		Timestamp: time.Now(),
	}
	if len(results) > 0 {
		assistant.ComparisonResults = results
	}

	messages := UpsertUserMessage(cfg.History, cfg.UserMessage)
	messages = append(messages, assistant)

	linked := make(map[string]string, len(cfg.Linked))
	for k, v := range cfg.Linked {
		linked[k] = v
	}

	return &Turn{
		id:             cfg.ID,
		conversationID: cfg.ConversationID,
		title:          cfg.Title,
		messages:       messages,
		primaryID:      cfg.AssistantID,
		userID:         cfg.UserMessage.ID,
		comparisons:    comparisons,
		requestIDs:     make(map[string]string),
		linked:         linked,
		startedAt:      time.Now(),
		ctx:            ctx,
		cancel:         cancel,
		events:         events,
	}
}

// ID returns the turn id used to correlate stop requests.
func (t *Turn) ID() string { return t.id }

// Context governs every request dispatched for this turn.
func (t *Turn) Context() context.Context { return t.ctx }

// Messages returns the current message snapshot. The slice is the live
// copy-on-write value: callers get a consistent view that later applies
// will not mutate.
func (t *Turn) Messages() []model.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messages
}

// ConversationID returns the conversation id bound so far ("" if none).
func (t *Turn) ConversationID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conversationID
}

// Title returns the conversation title reported by the gateway.
func (t *Turn) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// BindConversation adopts a conversation id established before dispatch
// (the ensure-parent-resource phase).
func (t *Turn) BindConversation(id, title string) {
	t.mu.Lock()
	t.conversationID = id
	if title != "" {
		t.title = title
	}
	t.mu.Unlock()
	t.emit(model.TurnEvent{Type: model.EventConversation, TurnID: t.id, ConversationID: id, Title: title})
}

// PrimaryMessage returns the primary assistant message as accumulated.
func (t *Turn) PrimaryMessage() model.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messages[len(t.messages)-1]
}

// UserMessageID returns the id of this turn's user message.
func (t *Turn) UserMessageID() string { return t.userID }

// PrimaryMessageID returns the assistant placeholder id, the correlation
// key for all primary-target deltas of this turn.
func (t *Turn) PrimaryMessageID() string { return t.primaryID }

// Comparison returns one comparison result by target key.
func (t *Turn) Comparison(target string) (model.ComparisonResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	res, ok := t.messages[len(t.messages)-1].ComparisonResults[target]
	return res, ok
}

// Linked returns the linked-conversation map including bindings made
// during this turn.
func (t *Turn) Linked() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.linked))
	for k, v := range t.linked {
		out[k] = v
	}
	return out
}

// LinkedFor returns the linked conversation id bound for a target, if any.
func (t *Turn) LinkedFor(target string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.linked[target]
	return id, ok
}

// RegisterRequest records the request id dispatched for a target so stop
// can notify the gateway out-of-band.
func (t *Turn) RegisterRequest(target, requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requestIDs[target] = requestID
}

// RequestIDs returns the request ids of every dispatched target.
func (t *Turn) RequestIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.requestIDs))
	for _, id := range t.requestIDs {
		ids = append(ids, id)
	}
	return ids
}

// Err returns the turn-level error set by a primary failure.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Stop cancels the turn's shared token. Idempotent; every in-flight
// request observes the cancellation, and any event arriving afterwards is
// discarded by the settled guard.
func (t *Turn) Stop() {
	t.mu.Lock()
	t.settled = true
	t.mu.Unlock()
	t.cancel()
}

// Settle marks the turn finished and releases its context. Events applied
// after settling are ignored.
func (t *Turn) Settle() {
	t.mu.Lock()
	t.settled = true
	t.mu.Unlock()
	t.cancel()
}

// Apply folds one stream event into the turn state for the given target
// ("" is the primary). This is the single dispatch point for the closed
// event union; stale or misaddressed events fall through as no-ops.
func (t *Turn) Apply(target string, ev llm.StreamEvent) {
	switch ev.Type {
	case llm.EventText:
		t.applyText(target, ev.Text)
	case llm.EventToolCall:
		if ev.ToolCall != nil {
			t.applyToolCall(target, *ev.ToolCall)
		}
	case llm.EventToolOutput:
		if ev.ToolOutput != nil {
			t.applyToolOutput(target, *ev.ToolOutput)
		}
	case llm.EventUsage:
		if ev.Usage != nil {
			t.applyUsage(target, *ev.Usage)
		}
	case llm.EventConversation:
		if ev.Conversation != nil {
			t.applyConversation(target, *ev.Conversation)
		}
	case llm.EventFinal:
		// Terminal content is merged in CompleteTarget from the settled
		// result; the event itself carries no incremental state.
	}
}

func (t *Turn) applyText(target, text string) {
	t.mu.Lock()
	if !t.guard(target) {
		t.mu.Unlock()
		return
	}
	if target == "" {
		t.patchPrimary(func(m *model.Message) {
			m.Content = m.Content.Append(text)
		})
	} else {
		t.patchComparison(target, func(r *model.ComparisonResult) {
			r.Content = r.Content.Append(text)
		})
	}
	t.mu.Unlock()
	t.emit(model.TurnEvent{Type: model.EventText, TurnID: t.id, MessageID: t.primaryID, Target: target, Content: text})
}

func (t *Turn) applyToolCall(target string, delta model.ToolCallDelta) {
	t.mu.Lock()
	if !t.guard(target) {
		t.mu.Unlock()
		return
	}
	var merged model.ToolCall
	if target == "" {
		t.patchPrimary(func(m *model.Message) {
			m.ToolCalls = model.MergeToolCallDelta(m.ToolCalls, delta, len(m.Content.Text()))
			merged = pickMerged(m.ToolCalls, delta)
		})
	} else {
		t.patchComparison(target, func(r *model.ComparisonResult) {
			r.ToolCalls = model.MergeToolCallDelta(r.ToolCalls, delta, len(r.Content.Text()))
			merged = pickMerged(r.ToolCalls, delta)
		})
	}
	t.mu.Unlock()
	t.emit(model.TurnEvent{Type: model.EventToolCall, TurnID: t.id, MessageID: t.primaryID, Target: target, ToolCall: &merged})
}

func (t *Turn) applyToolOutput(target string, out model.ToolOutput) {
	t.mu.Lock()
	if !t.guard(target) {
		t.mu.Unlock()
		return
	}
	if target == "" {
		t.patchPrimary(func(m *model.Message) {
			m.ToolOutputs = model.AppendToolOutput(m.ToolOutputs, out)
		})
	} else {
		t.patchComparison(target, func(r *model.ComparisonResult) {
			r.ToolOutputs = model.AppendToolOutput(r.ToolOutputs, out)
		})
	}
	t.mu.Unlock()
	t.emit(model.TurnEvent{Type: model.EventToolOutput, TurnID: t.id, MessageID: t.primaryID, Target: target, ToolOutput: &out})
}

func (t *Turn) applyUsage(target string, usage model.Usage) {
	t.mu.Lock()
	if !t.guard(target) {
		t.mu.Unlock()
		return
	}
	if target == "" {
		// The reported completion count replaces the character-based
		// estimate and fixes the turn's token rate.
		if elapsed := time.Since(t.startedAt).Seconds(); elapsed > 0 && usage.CompletionTokens > 0 {
			usage.TokensPerSecond = float64(usage.CompletionTokens) / elapsed
		}
		t.usageSeen = true
		t.patchPrimary(func(m *model.Message) {
			u := usage
			m.Usage = &u
		})
	} else {
		t.patchComparison(target, func(r *model.ComparisonResult) {
			u := usage
			r.Usage = &u
		})
	}
	t.mu.Unlock()
	t.emit(model.TurnEvent{Type: model.EventUsage, TurnID: t.id, MessageID: t.primaryID, Target: target, Usage: &usage})
}

// applyConversation adopts the gateway-assigned conversation identity.
// Only the primary stream carries these; a duplicate notification with the
// same id only refreshes the title, and a mismatched id is dropped.
func (t *Turn) applyConversation(target string, info llm.ConversationInfo) {
	if target != "" {
		return
	}
	t.mu.Lock()
	if t.settled {
		t.mu.Unlock()
		return
	}
	switch t.conversationID {
	case "":
		t.conversationID = info.ID
		t.title = info.Title
	case info.ID:
		if info.Title != "" {
			t.title = info.Title
		}
	default:
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	t.emit(model.TurnEvent{Type: model.EventConversation, TurnID: t.id, ConversationID: info.ID, Title: info.Title})
}

// CompleteTarget settles one target successfully: the final authoritative
// content wins when non-empty, otherwise the streamed accumulation stands.
// A first-time comparison success binds that target's linked conversation.
func (t *Turn) CompleteTarget(target string, result *llm.ChatResult) {
	t.mu.Lock()
	if !t.guard(target) {
		t.mu.Unlock()
		return
	}
	if target == "" {
		t.patchPrimary(func(m *model.Message) {
			if result != nil {
				if !result.Content.Empty() {
					m.Content = result.Content
				}
				if result.Usage != nil && m.Usage == nil {
					u := *result.Usage
					m.Usage = &u
				}
			}
			if m.Usage == nil && !m.Content.Empty() {
				// No usage was ever reported; the character-based
				// estimate stands in for the completion count.
				u := model.Usage{CompletionTokens: llm.EstimateTokens(m.Content)}
				if elapsed := time.Since(t.startedAt).Seconds(); elapsed > 0 && u.CompletionTokens > 0 {
					u.TokensPerSecond = float64(u.CompletionTokens) / elapsed
				}
				m.Usage = &u
			}
		})
		if result != nil && t.conversationID == "" && result.ConversationID != "" {
			t.conversationID = result.ConversationID
			t.title = result.Title
		}
		t.mu.Unlock()
		return
	}

	var bound string
	t.patchComparison(target, func(r *model.ComparisonResult) {
		if result != nil && !result.Content.Empty() {
			r.Content = result.Content
		}
		if result != nil && r.Usage == nil && result.Usage != nil {
			u := *result.Usage
			r.Usage = &u
		}
		r.Status = model.StatusComplete
	})
	if result != nil && result.ConversationID != "" {
		if _, ok := t.linked[target]; !ok {
			t.linked[target] = result.ConversationID
			bound = result.ConversationID
		}
	}
	t.mu.Unlock()

	t.emit(model.TurnEvent{Type: model.EventStatus, TurnID: t.id, MessageID: t.primaryID, Target: target, Status: model.StatusComplete, ConversationID: bound})
}

// FailTarget settles one target with an error. A primary failure sets the
// turn-level error; a comparison failure only flips that one result to
// error and leaves the rest of the turn untouched. Cancellation is a clean
// settle: partial content stays, no error is recorded.
func (t *Turn) FailTarget(target string, kind llm.FailureKind, err error) {
	if kind == llm.FailureCancelled {
		return
	}

	t.mu.Lock()
	if !t.guard(target) {
		t.mu.Unlock()
		return
	}
	if target == "" {
		t.err = err
		t.mu.Unlock()
		t.emit(model.TurnEvent{Type: model.EventError, TurnID: t.id, MessageID: t.primaryID, Error: err.Error()})
		return
	}
	t.patchComparison(target, func(r *model.ComparisonResult) {
		r.Status = model.StatusError
		r.Error = err.Error()
	})
	t.mu.Unlock()
	t.emit(model.TurnEvent{Type: model.EventStatus, TurnID: t.id, MessageID: t.primaryID, Target: target, Status: model.StatusError, Error: err.Error()})
}

// guard is the staleness check shared by every updater: the turn must not
// have settled, the primary placeholder must still be the last message,
// and a comparison target must still be registered. Callers hold t.mu.
func (t *Turn) guard(target string) bool {
	if t.settled {
		return false
	}
	last := t.messages[len(t.messages)-1]
	if last.Role != model.RoleAssistant || last.ID != t.primaryID {
		return false
	}
	if target != "" && !t.comparisons[target] {
		return false
	}
	return true
}

// patchPrimary replaces the last message with a patched copy. Callers hold
// t.mu. Observers holding an earlier Messages() snapshot are unaffected.
func (t *Turn) patchPrimary(patch func(*model.Message)) {
	n := len(t.messages)
	next := make([]model.Message, n)
	copy(next, t.messages)
	patch(&next[n-1])
	t.messages = next
}

// patchComparison replaces the owning assistant message with a copy whose
// comparison map has the patched entry. Callers hold t.mu.
func (t *Turn) patchComparison(target string, patch func(*model.ComparisonResult)) {
	t.patchPrimary(func(m *model.Message) {
		results := make(map[string]model.ComparisonResult, len(m.ComparisonResults))
		for k, v := range m.ComparisonResults {
			results[k] = v
		}
		res := results[target]
		patch(&res)
		results[target] = res
		m.ComparisonResults = results
	})
}

// emit forwards a turn event to the consumer unless the turn has been torn
// down; cancellation also unblocks a consumer that stopped reading.
func (t *Turn) emit(ev model.TurnEvent) {
	select {
	case t.events <- ev:
	case <-t.ctx.Done():
	}
}

// pickMerged finds the accumulator the delta landed in, for event
// forwarding.
func pickMerged(calls []model.ToolCall, delta model.ToolCallDelta) model.ToolCall {
	if delta.ID != "" {
		for _, c := range calls {
			if c.ID == delta.ID {
				return c
			}
		}
	}
	for _, c := range calls {
		if c.Index == delta.Index {
			return c
		}
	}
	return model.ToolCall{}
}
