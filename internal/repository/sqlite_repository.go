package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"parley/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) CreateChat(ctx context.Context, chat *model.Chat) error {
	query := "INSERT INTO chats (id, user_id, title, model, conversation_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, chat.ID, chat.UserID, chat.Title, chat.Model, chat.ConversationID, chat.CreatedAt, chat.UpdatedAt)
	return err
}

func (r *sqliteRepository) GetChat(ctx context.Context, chatID string) (*model.Chat, error) {
	query := "SELECT id, user_id, title, model, conversation_id, created_at, updated_at FROM chats WHERE id = ?"
	row := r.db.QueryRowContext(ctx, query, chatID)
	var chat model.Chat
	err := row.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Model, &chat.ConversationID, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &chat, nil
}

func (r *sqliteRepository) GetChats(ctx context.Context) ([]*model.Chat, error) {
	query := "SELECT id, user_id, title, model, conversation_id, created_at, updated_at FROM chats ORDER BY updated_at DESC"
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*model.Chat
	for rows.Next() {
		var chat model.Chat
		if err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Model, &chat.ConversationID, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, &chat)
	}
	return chats, rows.Err()
}

func (r *sqliteRepository) UpdateChatTitle(ctx context.Context, chatID, newTitle string) error {
	query := "UPDATE chats SET title = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, newTitle, time.Now().UTC(), chatID)
	return err
}

func (r *sqliteRepository) UpdateChatConversation(ctx context.Context, chatID, conversationID string) error {
	query := "UPDATE chats SET conversation_id = ?, updated_at = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, conversationID, time.Now().UTC(), chatID)
	return err
}

func (r *sqliteRepository) DeleteChat(ctx context.Context, chatID string) error {
	query := "DELETE FROM chats WHERE id = ?"
	_, err := r.db.ExecContext(ctx, query, chatID)
	return err
}

// AddMessage inserts the message and bumps the chat's updated_at inside one
// transaction so the chat list ordering never drifts from its content.
func (r *sqliteRepository) AddMessage(ctx context.Context, message *model.Message, chatID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	content, toolCalls, toolOutputs, usage, comparisons, err := encodeMessage(message)
	if err != nil {
		return err
	}

	insertMsgQuery := `
		INSERT INTO messages (id, chat_id, parent_id, role, content, model, timestamp, tool_calls, tool_outputs, usage, comparison_results, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, insertMsgQuery,
		message.ID,
		chatID,
		message.ParentID,
		message.Role,
		content,
		message.Model,
		message.Timestamp,
		toolCalls,
		toolOutputs,
		usage,
		comparisons,
		true,
	)
	if err != nil {
		return fmt.Errorf("could not insert message: %w", err)
	}

	updateChatQuery := "UPDATE chats SET updated_at = ? WHERE id = ?"
	_, err = tx.ExecContext(ctx, updateChatQuery, time.Now().UTC(), chatID)
	if err != nil {
		return fmt.Errorf("could not update chat timestamp: %w", err)
	}

	return tx.Commit()
}

func (r *sqliteRepository) UpdateMessage(ctx context.Context, message *model.Message) error {
	content, toolCalls, toolOutputs, usage, comparisons, err := encodeMessage(message)
	if err != nil {
		return err
	}
	query := `
		UPDATE messages
		SET content = ?, tool_calls = ?, tool_outputs = ?, usage = ?, comparison_results = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query, content, toolCalls, toolOutputs, usage, comparisons, message.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepository) GetActiveMessagesByChatID(ctx context.Context, chatID string) ([]model.Message, error) {
	query := `
		SELECT id, parent_id, role, content, model, timestamp, tool_calls, tool_outputs, usage, comparison_results
		FROM messages
		WHERE chat_id = ? AND is_active = TRUE
		ORDER BY timestamp ASC
	`
	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var content string
		var parentID, modelName, toolCalls, toolOutputs, usage, comparisons sql.NullString

		if err := rows.Scan(&msg.ID, &parentID, &msg.Role, &content, &modelName, &msg.Timestamp, &toolCalls, &toolOutputs, &usage, &comparisons); err != nil {
			return nil, err
		}

		if parentID.Valid {
			msg.ParentID = &parentID.String
		}
		if modelName.Valid {
			msg.Model = &modelName.String
		}
		if err := decodeMessage(&msg, content, toolCalls, toolOutputs, usage, comparisons); err != nil {
			return nil, fmt.Errorf("could not decode message %s: %w", msg.ID, err)
		}

		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// DeactivateMessagesAfter flips is_active off for every message of the chat
// that is newer than the given message. The message itself stays active.
func (r *sqliteRepository) DeactivateMessagesAfter(ctx context.Context, chatID, messageID string) error {
	query := `
		UPDATE messages SET is_active = FALSE
		WHERE chat_id = ? AND is_active = TRUE
		  AND timestamp > (SELECT timestamp FROM messages WHERE id = ?)
	`
	_, err := r.db.ExecContext(ctx, query, chatID, messageID)
	return err
}

func (r *sqliteRepository) GetLinkedConversations(ctx context.Context, chatID string) (map[string]string, error) {
	query := "SELECT target, conversation_id FROM linked_conversations WHERE chat_id = ?"
	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	linked := make(map[string]string)
	for rows.Next() {
		var target, conversationID string
		if err := rows.Scan(&target, &conversationID); err != nil {
			return nil, err
		}
		linked[target] = conversationID
	}
	return linked, rows.Err()
}

func (r *sqliteRepository) SetLinkedConversation(ctx context.Context, chatID, target, conversationID string) error {
	query := `
		INSERT INTO linked_conversations (chat_id, target, conversation_id) VALUES (?, ?, ?)
		ON CONFLICT(chat_id, target) DO UPDATE SET conversation_id = excluded.conversation_id
	`
	_, err := r.db.ExecContext(ctx, query, chatID, target, conversationID)
	return err
}

// encodeMessage serializes the JSON-typed columns. Empty collections are
// stored as NULL rather than "[]" so the decode path stays symmetric.
func encodeMessage(message *model.Message) (content string, toolCalls, toolOutputs, usage, comparisons sql.NullString, err error) {
	raw, err := json.Marshal(message.Content)
	if err != nil {
		err = fmt.Errorf("could not marshal content: %w", err)
		return
	}
	content = string(raw)

	if toolCalls, err = marshalNullable(message.ToolCalls, len(message.ToolCalls) > 0); err != nil {
		return
	}
	if toolOutputs, err = marshalNullable(message.ToolOutputs, len(message.ToolOutputs) > 0); err != nil {
		return
	}
	if usage, err = marshalNullable(message.Usage, message.Usage != nil); err != nil {
		return
	}
	comparisons, err = marshalNullable(message.ComparisonResults, len(message.ComparisonResults) > 0)
	return
}

func decodeMessage(msg *model.Message, content string, toolCalls, toolOutputs, usage, comparisons sql.NullString) error {
	if err := json.Unmarshal([]byte(content), &msg.Content); err != nil {
		return err
	}
	if toolCalls.Valid {
		if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
			return err
		}
	}
	if toolOutputs.Valid {
		if err := json.Unmarshal([]byte(toolOutputs.String), &msg.ToolOutputs); err != nil {
			return err
		}
	}
	if usage.Valid {
		msg.Usage = &model.Usage{}
		if err := json.Unmarshal([]byte(usage.String), msg.Usage); err != nil {
			return err
		}
	}
	if comparisons.Valid {
		if err := json.Unmarshal([]byte(comparisons.String), &msg.ComparisonResults); err != nil {
			return err
		}
	}
	return nil
}

func marshalNullable(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("could not marshal column: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}
