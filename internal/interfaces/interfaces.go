package interfaces

import (
	"context"

	"parley/internal/config"
	"parley/internal/llm"
	"parley/internal/model"
	"parley/internal/service"
)

// This file defines the interfaces for our core services.
// Depending on these interfaces, instead of concrete implementations, allows for
// decoupling (e.g., API layer from Service layer) and easier testing via mocking.

// ChatService defines the contract for chat-related business logic.
type ChatService interface {
	UpdateChatTitle(ctx context.Context, chatID, newTitle string) error
	DeleteChat(ctx context.Context, chatID string) error
	ListChats(ctx context.Context) ([]*model.Chat, error)
	GetFullChat(ctx context.Context, chatID string) (*model.FullChat, error)
	HandleNewMessage(ctx context.Context, req *service.CreateMessageRequest, streamChan chan<- model.TurnEvent)
	RegenerateMessage(ctx context.Context, chatID, assistantMessageID string, req *service.RegenerateMessageRequest, streamChan chan<- model.TurnEvent)
	RetryComparison(ctx context.Context, chatID, assistantMessageID, target string, streamChan chan<- model.TurnEvent)
	Stop(turnID string)
}

// SettingsService defines the contract for managing application settings.
type SettingsService interface {
	InitAndGet(ctx context.Context, bootstrap *config.BootstrapConfig) (*service.Settings, error)
	Get(ctx context.Context) (*service.Settings, error)
	Save(ctx context.Context, settings *service.Settings) error
}

// ModelRegistry defines the contract for the gateway's model table.
type ModelRegistry interface {
	Models(ctx context.Context) (*llm.ModelList, error)
}
