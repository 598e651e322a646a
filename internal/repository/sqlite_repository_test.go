package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/model"
	"parley/internal/repository"
)

func setupRepo(t *testing.T) (repository.Repository, *sql.DB, sqlmock.Sqlmock) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	return repository.NewSQLiteRepository(db), db, mockDB
}

func TestSQLiteRepository_CreateChat(t *testing.T) {
	repo, db, mockDB := setupRepo(t)
	defer func() { _ = db.Close() }()

	chat := &model.Chat{ID: "chat1", UserID: "default-user", Title: "T", Model: "openai::gpt-4o", CreatedAt: time.Now(), UpdatedAt: time.Now()}

	mockDB.ExpectExec("INSERT INTO chats").
		WithArgs(chat.ID, chat.UserID, chat.Title, chat.Model, chat.ConversationID, chat.CreatedAt, chat.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.CreateChat(context.Background(), chat))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSQLiteRepository_GetChat(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, db, mockDB := setupRepo(t)
		defer func() { _ = db.Close() }()

		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "user_id", "title", "model", "conversation_id", "created_at", "updated_at"}).
			AddRow("chat1", "default-user", "T", "openai::gpt-4o", "conv-1", now, now)
		mockDB.ExpectQuery("SELECT (.+) FROM chats WHERE id = ?").WithArgs("chat1").WillReturnRows(rows)

		chat, err := repo.GetChat(context.Background(), "chat1")
		require.NoError(t, err)
		assert.Equal(t, "conv-1", chat.ConversationID)
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})

	t.Run("Not found maps to sentinel", func(t *testing.T) {
		repo, db, mockDB := setupRepo(t)
		defer func() { _ = db.Close() }()

		mockDB.ExpectQuery("SELECT (.+) FROM chats WHERE id = ?").WithArgs("missing").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetChat(context.Background(), "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestSQLiteRepository_AddMessage(t *testing.T) {
	repo, db, mockDB := setupRepo(t)
	defer func() { _ = db.Close() }()

	msg := &model.Message{
		ID:        "m1",
		Role:      model.RoleAssistant,
		Content:   model.TextContent("answer"),
		Timestamp: time.Now(),
		ToolCalls: []model.ToolCall{{ID: "call_1", Index: 0}},
		Usage:     &model.Usage{TotalTokens: 5},
		ComparisonResults: map[string]model.ComparisonResult{
			"local::llama3": {Content: model.TextContent("side"), Status: model.StatusComplete},
		},
	}

	mockDB.ExpectBegin()
	mockDB.ExpectExec("INSERT INTO messages").
		WithArgs("m1", "chat1", nil, model.RoleAssistant, `"answer"`, nil, msg.Timestamp,
			sqlmock.AnyArg(), nil, sqlmock.AnyArg(), sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectExec("UPDATE chats SET updated_at").
		WithArgs(sqlmock.AnyArg(), "chat1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mockDB.ExpectCommit()

	require.NoError(t, repo.AddMessage(context.Background(), msg, "chat1"))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSQLiteRepository_GetActiveMessagesByChatID(t *testing.T) {
	repo, db, mockDB := setupRepo(t)
	defer func() { _ = db.Close() }()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "parent_id", "role", "content", "model", "timestamp", "tool_calls", "tool_outputs", "usage", "comparison_results"}).
		AddRow("u1", nil, model.RoleUser, `"question"`, nil, now, nil, nil, nil, nil).
		AddRow("a1", "u1", model.RoleAssistant, `"answer"`, "openai::gpt-4o", now,
			`[{"id":"call_1","index":0,"function":{"arguments":"{}"},"text_offset":0}]`,
			`[{"tool_call_id":"call_1","output":"ok"}]`,
			`{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}`,
			`{"local::llama3":{"content":"side","status":"complete"}}`)

	mockDB.ExpectQuery("SELECT (.+) FROM messages").WithArgs("chat1").WillReturnRows(rows)

	messages, err := repo.GetActiveMessagesByChatID(context.Background(), "chat1")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "question", messages[0].Content.Text())
	assistant := messages[1]
	require.NotNil(t, assistant.ParentID)
	assert.Equal(t, "u1", *assistant.ParentID)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)
	require.Len(t, assistant.ToolOutputs, 1)
	require.NotNil(t, assistant.Usage)
	assert.Equal(t, 3, assistant.Usage.TotalTokens)
	require.Contains(t, assistant.ComparisonResults, "local::llama3")
	assert.Equal(t, "side", assistant.ComparisonResults["local::llama3"].Content.Text())
}

func TestSQLiteRepository_DeactivateMessagesAfter(t *testing.T) {
	repo, db, mockDB := setupRepo(t)
	defer func() { _ = db.Close() }()

	mockDB.ExpectExec("UPDATE messages SET is_active = FALSE").
		WithArgs("chat1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeactivateMessagesAfter(context.Background(), "chat1", "u1"))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSQLiteRepository_UpdateMessage_NotFound(t *testing.T) {
	repo, db, mockDB := setupRepo(t)
	defer func() { _ = db.Close() }()

	mockDB.ExpectExec("UPDATE messages").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMessage(context.Background(), &model.Message{ID: "missing", Content: model.TextContent("x")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSQLiteRepository_LinkedConversations(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		repo, db, mockDB := setupRepo(t)
		defer func() { _ = db.Close() }()

		rows := sqlmock.NewRows([]string{"target", "conversation_id"}).
			AddRow("local::llama3", "conv-a").
			AddRow("openai::gpt-4o", "conv-b")
		mockDB.ExpectQuery("SELECT target, conversation_id FROM linked_conversations").
			WithArgs("chat1").WillReturnRows(rows)

		linked, err := repo.GetLinkedConversations(context.Background(), "chat1")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"local::llama3": "conv-a", "openai::gpt-4o": "conv-b"}, linked)
	})

	t.Run("Set upserts", func(t *testing.T) {
		repo, db, mockDB := setupRepo(t)
		defer func() { _ = db.Close() }()

		mockDB.ExpectExec("INSERT INTO linked_conversations").
			WithArgs("chat1", "local::llama3", "conv-a").
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.SetLinkedConversation(context.Background(), "chat1", "local::llama3", "conv-a"))
		assert.NoError(t, mockDB.ExpectationsWereMet())
	})
}
