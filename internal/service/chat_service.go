package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	app_errors "parley/internal/errors"
	"parley/internal/llm"
	"parley/internal/model"
	"parley/internal/repository"
)

// ChatService orchestrates turns: it fans a user message out to the primary
// model and its comparison targets, folds the streams into one turn state,
// and persists the settled record.
type ChatService struct {
	repo     repository.Repository
	llm      llm.Provider
	registry *llm.Registry

	mu     sync.Mutex
	active map[string]*Turn  // turn id -> turn
	byChat map[string]string // chat id -> turn id, single-flight guard
}

// CreateMessageRequest is the structure for a new message request from the
// client. Defaults for the model fields come from settings and are filled by
// the handler before the request reaches the service.
type CreateMessageRequest struct {
	ChatID           string       `json:"chat_id"`
	MessageID        string       `json:"message_id"`
	Content          string       `json:"content"`
	Parts            []model.Part `json:"parts,omitempty"`
	Model            string       `json:"model"`
	ComparisonModels []string     `json:"comparison_models,omitempty"`
	SystemPrompt     string       `json:"system_prompt"`
	SupportModel     string       `json:"support_model"`
	ToolsEnabled     bool         `json:"tools_enabled"`
	Tools            []string     `json:"tools,omitempty"`
	ReasoningEffort  string       `json:"reasoning_effort,omitempty"`
}

// RegenerateMessageRequest carries the overrides for a regenerate turn. An
// empty Content reuses the original user message verbatim (retry); a
// non-empty one replaces it under the same id (edit).
type RegenerateMessageRequest struct {
	Content          string   `json:"content,omitempty"`
	Model            string   `json:"model"`
	ComparisonModels []string `json:"comparison_models,omitempty"`
	SystemPrompt     string   `json:"system_prompt"`
	SupportModel     string   `json:"support_model"`
	ToolsEnabled     bool     `json:"tools_enabled"`
	Tools            []string `json:"tools,omitempty"`
	ReasoningEffort  string   `json:"reasoning_effort,omitempty"`
}

func NewChatService(repo repository.Repository, provider llm.Provider, registry *llm.Registry) *ChatService {
	return &ChatService{
		repo:     repo,
		llm:      provider,
		registry: registry,
		active:   make(map[string]*Turn),
		byChat:   make(map[string]string),
	}
}

// UpdateChatTitle handles the logic for manually updating a chat's title.
func (s *ChatService) UpdateChatTitle(ctx context.Context, chatID, newTitle string) error {
	if newTitle == "" {
		return fmt.Errorf("%w: title cannot be empty", app_errors.ErrValidation)
	}
	return s.repo.UpdateChatTitle(ctx, chatID, newTitle)
}

// DeleteChat handles the logic for deleting a chat and all its related data.
func (s *ChatService) DeleteChat(ctx context.Context, chatID string) error {
	return s.repo.DeleteChat(ctx, chatID)
}

// ListChats retrieves all chats.
func (s *ChatService) ListChats(ctx context.Context) ([]*model.Chat, error) {
	return s.repo.GetChats(ctx)
}

// GetFullChat retrieves a chat's metadata, its active messages and the
// linked conversations backing its comparison targets.
func (s *ChatService) GetFullChat(ctx context.Context, chatID string) (*model.FullChat, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("could not get chat: %w", err)
	}
	messages, err := s.repo.GetActiveMessagesByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	linked, err := s.repo.GetLinkedConversations(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("could not get linked conversations: %w", err)
	}
	return &model.FullChat{Chat: *chat, Messages: messages, LinkedConversations: linked}, nil
}

// HandleNewMessage processes a new user message: it creates the chat if
// needed, runs the turn against every target and persists the outcome. All
// progress is reported on streamChan, which is closed before returning.
func (s *ChatService) HandleNewMessage(ctx context.Context, req *CreateMessageRequest, streamChan chan<- model.TurnEvent) {
	defer close(streamChan)

	isNewChat := req.ChatID == ""
	chatID := req.ChatID
	var chat *model.Chat
	var err error

	if isNewChat {
		chatID = model.NewID()
		chat = &model.Chat{
			ID:        chatID,
			UserID:    "default-user",
			Title:     truncate(req.Content, 50),
			Model:     req.Model,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := s.repo.CreateChat(ctx, chat); err != nil {
			slog.Error("could not create chat", "error", err)
			streamChan <- model.TurnEvent{Type: model.EventError, Error: "could not create chat"}
			return
		}
	} else {
		chat, err = s.repo.GetChat(ctx, chatID)
		if err != nil {
			slog.Error("could not get chat", "chat_id", chatID, "error", err)
			streamChan <- model.TurnEvent{Type: model.EventError, Error: "could not find chat"}
			return
		}
	}

	history, err := s.repo.GetActiveMessagesByChatID(ctx, chatID)
	if err != nil {
		slog.Error("could not load history", "chat_id", chatID, "error", err)
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "could not load history"}
		return
	}
	linked, err := s.repo.GetLinkedConversations(ctx, chatID)
	if err != nil {
		slog.Error("could not load linked conversations", "chat_id", chatID, "error", err)
		linked = nil
	}

	userID := req.MessageID
	if userID == "" {
		userID = model.NewID()
	}
	userMessage := model.Message{
		ID:        userID,
		Role:      model.RoleUser,
		Content:   contentOf(req.Content, req.Parts),
		Timestamp: time.Now(),
	}

	cfg := TurnConfig{
		ID:             model.NewID(),
		ConversationID: chat.ConversationID,
		Title:          chat.Title,
		History:        history,
		UserMessage:    userMessage,
		AssistantID:    model.NewID(),
		Model:          req.Model,
		Comparisons:    req.ComparisonModels,
		Linked:         linked,
	}
	s.runTurn(ctx, chat, cfg, turnParams{
		systemPrompt:    req.SystemPrompt,
		supportModel:    req.SupportModel,
		toolsEnabled:    req.ToolsEnabled,
		tools:           req.Tools,
		reasoning:       req.ReasoningEffort,
		isNewChat:       isNewChat,
		persistUser:     true,
		persistNewAsst:  true,
		fallbackTitleOf: req.Content,
	}, streamChan)
}

// RegenerateMessage reruns the turn that produced an assistant message. The
// superseded assistant message (and everything after it) is deactivated;
// the user message keeps its id, optionally with edited content.
func (s *ChatService) RegenerateMessage(ctx context.Context, chatID, assistantMessageID string, req *RegenerateMessageRequest, streamChan chan<- model.TurnEvent) {
	defer close(streamChan)

	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		slog.Error("could not get chat", "chat_id", chatID, "error", err)
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "could not find chat"}
		return
	}
	messages, err := s.repo.GetActiveMessagesByChatID(ctx, chatID)
	if err != nil {
		slog.Error("could not load history", "chat_id", chatID, "error", err)
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "could not load history"}
		return
	}

	userMessage, history, ok := splitAtParentUser(messages, assistantMessageID)
	if !ok {
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "message not found"}
		return
	}
	if req.Content != "" {
		userMessage.Content = model.TextContent(req.Content)
	}
	if err := s.repo.DeactivateMessagesAfter(ctx, chatID, userMessage.ID); err != nil {
		slog.Error("could not deactivate superseded messages", "chat_id", chatID, "error", err)
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "could not rewind chat"}
		return
	}
	if req.Content != "" {
		if err := s.repo.UpdateMessage(ctx, &userMessage); err != nil {
			slog.Error("could not update edited message", "message_id", userMessage.ID, "error", err)
		}
	}

	linked, err := s.repo.GetLinkedConversations(ctx, chatID)
	if err != nil {
		linked = nil
	}

	cfg := TurnConfig{
		ID:             model.NewID(),
		ConversationID: chat.ConversationID,
		Title:          chat.Title,
		History:        history,
		UserMessage:    userMessage,
		AssistantID:    model.NewID(),
		Model:          req.Model,
		Comparisons:    req.ComparisonModels,
		Linked:         linked,
	}
	s.runTurn(ctx, chat, cfg, turnParams{
		systemPrompt:   req.SystemPrompt,
		supportModel:   req.SupportModel,
		toolsEnabled:   req.ToolsEnabled,
		tools:          req.Tools,
		reasoning:      req.ReasoningEffort,
		persistNewAsst: true,
	}, streamChan)
}

// RetryComparison reruns a single comparison target of an existing
// assistant message, leaving the primary content and every other target
// untouched.
func (s *ChatService) RetryComparison(ctx context.Context, chatID, assistantMessageID, target string, streamChan chan<- model.TurnEvent) {
	defer close(streamChan)

	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "could not find chat"}
		return
	}
	messages, err := s.repo.GetActiveMessagesByChatID(ctx, chatID)
	if err != nil {
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "could not load history"}
		return
	}

	var stored *model.Message
	for i := range messages {
		if messages[i].ID == assistantMessageID {
			stored = &messages[i]
			break
		}
	}
	if stored == nil || stored.Role != model.RoleAssistant {
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "message not found"}
		return
	}
	if _, ok := stored.ComparisonResults[target]; !ok {
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "unknown comparison target"}
		return
	}
	userMessage, history, ok := splitAtParentUser(messages, assistantMessageID)
	if !ok {
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "message not found"}
		return
	}

	linked, err := s.repo.GetLinkedConversations(ctx, chatID)
	if err != nil {
		linked = nil
	}

	cfg := TurnConfig{
		ID:             model.NewID(),
		ConversationID: chat.ConversationID,
		Title:          chat.Title,
		History:        history,
		UserMessage:    userMessage,
		AssistantID:    assistantMessageID,
		Model:          chat.Model,
		Comparisons:    []string{target},
		Linked:         linked,
	}
	turn := NewTurn(ctx, cfg, streamChan)
	if !s.register(chatID, turn) {
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "a turn is already running for this chat"}
		return
	}
	defer s.unregister(chatID, turn)

	providerID, modelID, err := s.registry.Resolve(ctx, target)
	if err != nil {
		turn.FailTarget(target, llm.FailureGeneric, err)
	} else {
		_ = dispatchTarget(turn.Context(), s.llm, turn, targetOptions{
			target:     target,
			providerID: providerID,
			modelID:    modelID,
		})
	}

	if result, ok := turn.Comparison(target); ok {
		updated := *stored
		results := make(map[string]model.ComparisonResult, len(stored.ComparisonResults))
		for k, v := range stored.ComparisonResults {
			results[k] = v
		}
		results[target] = result
		updated.ComparisonResults = results
		if err := s.repo.UpdateMessage(ctx, &updated); err != nil {
			slog.Error("could not persist retried comparison", "message_id", updated.ID, "error", err)
		}
	}
	s.persistLinked(ctx, chatID, linked, turn.Linked())

	streamChan <- model.TurnEvent{Type: model.EventDone, TurnID: turn.ID(), MessageID: assistantMessageID, Done: true}
}

// Stop cancels the in-flight turn, if any. Idempotent: stopping an unknown
// or already-settled turn is a no-op. The gateway is notified out-of-band
// per dispatched request, best-effort.
func (s *ChatService) Stop(turnID string) {
	s.mu.Lock()
	turn, ok := s.active[turnID]
	s.mu.Unlock()
	if !ok {
		return
	}

	requestIDs := turn.RequestIDs()
	turn.Stop()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, id := range requestIDs {
			if err := s.llm.StopGeneration(ctx, id); err != nil {
				slog.Warn("stop notification failed", "request_id", id, "error", err)
			}
		}
	}()
}

// turnParams carries the per-turn knobs that are not part of the turn state.
type turnParams struct {
	systemPrompt    string
	supportModel    string
	toolsEnabled    bool
	tools           []string
	reasoning       string
	isNewChat       bool
	persistUser     bool
	persistNewAsst  bool
	fallbackTitleOf string
}

// runTurn is the shared fan-out path behind HandleNewMessage and
// RegenerateMessage: resolve targets, ensure a parent conversation when
// comparisons need one, dispatch everything in parallel, persist.
func (s *ChatService) runTurn(ctx context.Context, chat *model.Chat, cfg TurnConfig, params turnParams, streamChan chan<- model.TurnEvent) {
	turn := NewTurn(ctx, cfg, streamChan)
	if !s.register(chat.ID, turn) {
		streamChan <- model.TurnEvent{Type: model.EventError, Error: "a turn is already running for this chat"}
		return
	}
	defer s.unregister(chat.ID, turn)

	primaryProvider, primaryModel, err := s.registry.Resolve(ctx, cfg.Model)
	if err != nil {
		turn.FailTarget("", llm.FailureGeneric, err)
		return
	}

	// Comparison requests need a parent conversation id before they start,
	// so a turn with comparisons on a fresh conversation creates it
	// up-front instead of waiting for the primary's conversation event.
	if len(cfg.Comparisons) > 0 && turn.ConversationID() == "" {
		info, err := s.llm.CreateConversation(ctx, &llm.CreateConversationRequest{
			Title: chat.Title,
			Model: primaryModel,
		})
		if err != nil {
			slog.Error("could not create conversation", "chat_id", chat.ID, "error", err)
			turn.FailTarget("", llm.FailureGeneric, err)
			return
		}
		turn.BindConversation(info.ID, info.Title)
	}

	g, gctx := errgroup.WithContext(turn.Context())
	g.Go(func() error {
		return dispatchTarget(gctx, s.llm, turn, targetOptions{
			providerID:   primaryProvider,
			modelID:      primaryModel,
			systemPrompt: params.systemPrompt,
			toolsEnabled: params.toolsEnabled,
			tools:        params.tools,
			reasoning:    params.reasoning,
		})
	})
	for _, target := range cfg.Comparisons {
		target := target
		g.Go(func() error {
			providerID, modelID, err := s.registry.Resolve(gctx, target)
			if err != nil {
				turn.FailTarget(target, llm.FailureGeneric, err)
				return nil
			}
			return dispatchTarget(gctx, s.llm, turn, targetOptions{
				target:       target,
				providerID:   providerID,
				modelID:      modelID,
				systemPrompt: params.systemPrompt,
				toolsEnabled: params.toolsEnabled,
				tools:        params.tools,
				reasoning:    params.reasoning,
			})
		})
	}
	turnErr := g.Wait()

	s.persistTurn(ctx, chat, cfg, params, turn, turnErr)

	streamChan <- model.TurnEvent{Type: model.EventDone, TurnID: turn.ID(), MessageID: cfg.AssistantID, Done: true}
}

// persistTurn writes the settled turn to the repository. Persistence uses a
// fresh context: a client that disconnected mid-stream must not lose the
// partial content the models already produced.
func (s *ChatService) persistTurn(ctx context.Context, chat *model.Chat, cfg TurnConfig, params turnParams, turn *Turn, turnErr error) {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
	}

	if params.persistUser {
		if err := s.repo.AddMessage(ctx, &cfg.UserMessage, chat.ID); err != nil {
			slog.Error("could not save user message", "chat_id", chat.ID, "error", err)
		}
	}

	assistant := turn.PrimaryMessage()
	if params.persistNewAsst && turnErr == nil {
		if err := s.repo.AddMessage(ctx, &assistant, chat.ID); err != nil {
			slog.Error("could not save assistant message", "chat_id", chat.ID, "error", err)
			return
		}
	}

	if conversationID := turn.ConversationID(); conversationID != "" && conversationID != chat.ConversationID {
		if err := s.repo.UpdateChatConversation(ctx, chat.ID, conversationID); err != nil {
			slog.Error("could not bind conversation", "chat_id", chat.ID, "error", err)
		}
	}
	if title := turn.Title(); title != "" && title != chat.Title {
		if err := s.repo.UpdateChatTitle(ctx, chat.ID, title); err != nil {
			slog.Error("could not update title", "chat_id", chat.ID, "error", err)
		}
	}
	s.persistLinked(ctx, chat.ID, cfg.Linked, turn.Linked())

	if params.isNewChat && turnErr == nil && turn.Title() == chat.Title && params.supportModel != "" {
		go s.generateTitle(context.Background(), chat.ID, params.supportModel,
			params.fallbackTitleOf, assistant.Content.Text())
	}
}

// persistLinked stores the linked-conversation bindings made during a turn.
func (s *ChatService) persistLinked(ctx context.Context, chatID string, before, after map[string]string) {
	for target, conversationID := range after {
		if before[target] == conversationID {
			continue
		}
		if err := s.repo.SetLinkedConversation(ctx, chatID, target, conversationID); err != nil {
			slog.Error("could not save linked conversation", "chat_id", chatID, "target", target, "error", err)
		}
	}
}

// register installs the turn, enforcing one in-flight turn per chat.
func (s *ChatService) register(chatID string, turn *Turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.byChat[chatID]; busy {
		return false
	}
	s.active[turn.ID()] = turn
	s.byChat[chatID] = turn.ID()
	return true
}

func (s *ChatService) unregister(chatID string, turn *Turn) {
	turn.Settle()
	s.mu.Lock()
	delete(s.active, turn.ID())
	if s.byChat[chatID] == turn.ID() {
		delete(s.byChat, chatID)
	}
	s.mu.Unlock()
}

// generateTitle creates a title for a new chat based on the initial
// conversation, using the support model. Runs detached from the request.
func (s *ChatService) generateTitle(ctx context.Context, chatID, supportModel, userQuery, assistantResponse string) {
	providerID, modelID, err := s.registry.Resolve(ctx, supportModel)
	if err != nil {
		slog.Warn("could not resolve support model", "model", supportModel, "error", err)
		return
	}

	prompt := fmt.Sprintf("Based on the following conversation, what would be a good title?\n\n---\nUser: %s\n\nAssistant: %s\n---",
		truncate(userQuery, 150),
		truncate(assistantResponse, 200),
	)
	req := &llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: model.RoleSystem, Content: model.TextContent("You are an expert at creating short, concise titles for conversations. Respond with only the title, and nothing else.")},
			{Role: model.RoleUser, Content: model.TextContent(prompt)},
		},
		Model:      modelID,
		ProviderID: providerID,
		RequestID:  model.NewID(),
	}
	resp, err := s.llm.Chat(ctx, req)
	if err != nil {
		slog.Warn("could not generate title", "chat_id", chatID, "error", err)
		return
	}

	newTitle := strings.TrimSpace(resp.Content.Text())
	newTitle = strings.Trim(newTitle, `"'`)
	if newTitle == "" {
		return
	}
	if err := s.repo.UpdateChatTitle(ctx, chatID, newTitle); err != nil {
		slog.Warn("could not update generated title", "chat_id", chatID, "error", err)
	}
}

// contentOf builds message content from the request, preferring structured
// parts when present.
func contentOf(text string, parts []model.Part) model.Content {
	if len(parts) > 0 {
		return model.PartsContent(parts)
	}
	return model.TextContent(text)
}

// splitAtParentUser locates the user message that produced the given
// assistant message and returns it together with the history before it.
func splitAtParentUser(messages []model.Message, assistantMessageID string) (model.Message, []model.Message, bool) {
	idx := -1
	for i := range messages {
		if messages[i].ID == assistantMessageID && messages[i].Role == model.RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Message{}, nil, false
	}
	for i := idx - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			return messages[i], messages[:i], true
		}
	}
	return model.Message{}, nil, false
}

// truncate shortens a string to a specified number of runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
