package repository

import (
	"context"

	"parley/internal/model"
)

// Repository defines the interface for data storage operations.
// This interface makes it easy to switch database implementations.
type Repository interface {
	CreateChat(ctx context.Context, chat *model.Chat) error
	GetChat(ctx context.Context, chatID string) (*model.Chat, error)
	GetChats(ctx context.Context) ([]*model.Chat, error)
	UpdateChatTitle(ctx context.Context, chatID, newTitle string) error
	UpdateChatConversation(ctx context.Context, chatID, conversationID string) error
	DeleteChat(ctx context.Context, chatID string) error

	AddMessage(ctx context.Context, message *model.Message, chatID string) error
	UpdateMessage(ctx context.Context, message *model.Message) error
	GetActiveMessagesByChatID(ctx context.Context, chatID string) ([]model.Message, error)
	DeactivateMessagesAfter(ctx context.Context, chatID, messageID string) error

	GetLinkedConversations(ctx context.Context, chatID string) (map[string]string, error)
	SetLinkedConversation(ctx context.Context, chatID, target, conversationID string) error
}
