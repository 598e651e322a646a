package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"parley/internal/interfaces"
	"parley/internal/model"
	"parley/internal/service"
)

// ChatHandler handles HTTP requests for chats, turns and settings.
type ChatHandler struct {
	service  interfaces.ChatService
	settings interfaces.SettingsService
}

func NewChatHandler(svc interfaces.ChatService, settings interfaces.SettingsService) *ChatHandler {
	return &ChatHandler{service: svc, settings: settings}
}

// GetSettings godoc
// @Summary      Get application settings
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  service.Settings
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/settings [get]
func (h *ChatHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary      Update application settings
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        settings  body  service.Settings  true  "New settings"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /v1/settings [post]
func (h *ChatHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings service.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := h.settings.Save(r.Context(), &settings); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// GetChats godoc
// @Summary      List chats
// @Tags         Chats
// @Produce      json
// @Success      200  {array}   model.Chat
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/chats [get]
func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.service.ListChats(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, chats)
}

// GetChat godoc
// @Summary      Get a chat with messages and linked conversations
// @Tags         Chats
// @Produce      json
// @Param        chatID  path  string  true  "Chat ID"
// @Success      200  {object}  model.FullChat
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/chats/{chatID} [get]
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	fullChat, err := h.service.GetFullChat(r.Context(), chatID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, fullChat)
}

// UpdateChatTitle godoc
// @Summary      Manually set a chat's title
// @Tags         Chats
// @Accept       json
// @Produce      json
// @Param        chatID  path  string             true  "Chat ID"
// @Param        title   body  UpdateTitleRequest true  "New title"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /v1/chats/{chatID}/title [put]
func (h *ChatHandler) UpdateChatTitle(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	var req UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.service.UpdateChatTitle(r.Context(), chatID, req.Title); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleDeleteChat godoc
// @Summary      Delete a chat
// @Tags         Chats
// @Produce      json
// @Param        chatID  path  string  true  "Chat ID"
// @Success      200  {object}  StatusResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/chats/{chatID} [delete]
func (h *ChatHandler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := h.service.DeleteChat(r.Context(), chatID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleStreamMessage godoc
// @Summary      Send a message and stream the turn
// @Description  Dispatches the message to the primary model and every comparison model, streaming progress as Server-Sent Events.
// @Tags         Chats
// @Accept       json
// @Produce      text/event-stream
// @Param        message  body  service.CreateMessageRequest  true  "Message"
// @Success      200  {object}  model.TurnEvent
// @Router       /v1/chats/messages [post]
func (h *ChatHandler) HandleStreamMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	var req service.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStreamError(w, "Invalid request body")
		return
	}
	h.applyDefaults(r, &req.Model, &req.SystemPrompt, &req.SupportModel, &req.ComparisonModels)

	streamChan := make(chan model.TurnEvent, 16)
	go h.service.HandleNewMessage(r.Context(), &req, streamChan)
	h.forwardStream(w, r, streamChan)
}

// HandleRegenerateMessage godoc
// @Summary      Regenerate an assistant message
// @Description  Deactivates the superseded response and reruns the turn, optionally with edited user content.
// @Tags         Chats
// @Accept       json
// @Produce      text/event-stream
// @Param        chatID     path  string  true  "Chat ID"
// @Param        messageID  path  string  true  "Assistant message ID"
// @Param        overrides  body  service.RegenerateMessageRequest  true  "Overrides"
// @Success      200  {object}  model.TurnEvent
// @Router       /v1/chats/{chatID}/messages/{messageID}/regenerate [post]
func (h *ChatHandler) HandleRegenerateMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	chatID := chi.URLParam(r, "chatID")
	messageID := chi.URLParam(r, "messageID")

	var req service.RegenerateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStreamError(w, "Invalid request body")
		return
	}
	h.applyDefaults(r, &req.Model, &req.SystemPrompt, &req.SupportModel, &req.ComparisonModels)

	streamChan := make(chan model.TurnEvent, 16)
	go h.service.RegenerateMessage(r.Context(), chatID, messageID, &req, streamChan)
	h.forwardStream(w, r, streamChan)
}

// HandleRetryComparison godoc
// @Summary      Rerun one comparison target
// @Description  Reruns a single comparison model for an assistant message without touching the primary response.
// @Tags         Chats
// @Accept       json
// @Produce      text/event-stream
// @Param        chatID     path  string                  true  "Chat ID"
// @Param        messageID  path  string                  true  "Assistant message ID"
// @Param        target     body  RetryComparisonRequest  true  "Comparison target"
// @Success      200  {object}  model.TurnEvent
// @Router       /v1/chats/{chatID}/messages/{messageID}/comparisons/retry [post]
func (h *ChatHandler) HandleRetryComparison(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	chatID := chi.URLParam(r, "chatID")
	messageID := chi.URLParam(r, "messageID")

	var req RetryComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStreamError(w, "Invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		sendStreamError(w, err.Error())
		return
	}

	streamChan := make(chan model.TurnEvent, 16)
	go h.service.RetryComparison(r.Context(), chatID, messageID, req.Target, streamChan)
	h.forwardStream(w, r, streamChan)
}

// HandleStopTurn godoc
// @Summary      Stop an in-flight turn
// @Description  Cancels generation for every target of the turn. Idempotent.
// @Tags         Chats
// @Produce      json
// @Param        turnID  path  string  true  "Turn ID"
// @Success      202  {object}  StatusResponse
// @Router       /v1/turns/{turnID}/stop [post]
func (h *ChatHandler) HandleStopTurn(w http.ResponseWriter, r *http.Request) {
	turnID := chi.URLParam(r, "turnID")
	h.service.Stop(turnID)
	respondWithJSON(w, http.StatusAccepted, StatusResponse{Status: "stopping"})
}

// applyDefaults fills the model fields a client left empty from the stored
// settings.
func (h *ChatHandler) applyDefaults(r *http.Request, mainModel, systemPrompt, supportModel *string, comparisons *[]string) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		slog.Warn("Could not load settings for defaults", "error", err)
		return
	}
	if *mainModel == "" {
		*mainModel = settings.MainModel
	}
	if *systemPrompt == "" {
		*systemPrompt = settings.SystemPrompt
	}
	if *supportModel == "" {
		*supportModel = settings.SupportModel
	}
	if *comparisons == nil {
		*comparisons = settings.ComparisonModels
	}
}

// forwardStream drains the turn stream into the SSE response. The channel is
// drained to the end even after the client disconnects so the producing
// service never blocks on a send.
func (h *ChatHandler) forwardStream(w http.ResponseWriter, r *http.Request, streamChan <-chan model.TurnEvent) {
	clientGone := false
	for event := range streamChan {
		if clientGone {
			continue
		}
		if r.Context().Err() != nil {
			slog.Info("Client disconnected, draining remaining events.")
			clientGone = true
			continue
		}
		if err := writeStreamEvent(w, event); err != nil {
			slog.Warn("Stream write failed, draining remaining events.", "error", err)
			clientGone = true
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
