package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simonyos/zcode-core/internal/domain"
	"github.com/simonyos/zcode-core/internal/zlog"
	_ "modernc.org/sqlite" // pure-Go driver, no cgo
)

// SQLiteStore persists conversations in a single `conversations` table —
// the row shape is forge_app/src/repo/conversation.rs's RawConversation
// translated 1:1: id, created_at, updated_at, content, archived, title.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) the sqlite database at
// path and ensures its schema exists. Use ":memory:" for an ephemeral
// store in tests.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStoreFromDB wraps an already-open *sql.DB — used by tests that
// drive the store through go-sqlmock.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			content TEXT NOT NULL,
			archived INTEGER NOT NULL DEFAULT 0,
			title TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create conversations table: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Upsert(ctx context.Context, conversationCtx domain.Context, id *domain.ConversationId) (domain.Conversation, error) {
	content, err := json.Marshal(conversationCtx)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to marshal context: %w", err)
	}

	now := time.Now().UTC()

	if id == nil {
		newID := domain.ConversationId(uuid.NewString())
		id = &newID
	}

	existing, err := s.Get(ctx, *id)
	createdAt := now
	title := ""
	archived := false
	if err == nil {
		createdAt = existing.CreatedAt
		title = existing.Title
		archived = existing.Archived
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, created_at, updated_at, content, archived, title)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`, string(*id), createdAt.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano), string(content), boolToInt(archived), nullableString(title))
	if err != nil {
		zlog.FromContext(ctx).Error().Err(err).Str("conversation_id", string(*id)).Msg("upsert conversation")
		return domain.Conversation{}, fmt.Errorf("failed to upsert conversation: %w", err)
	}
	zlog.FromContext(ctx).Debug().Str("conversation_id", string(*id)).Msg("conversation upserted")

	return domain.Conversation{
		ID:        *id,
		Title:     title,
		Context:   conversationCtx,
		Archived:  archived,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id domain.ConversationId) (domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, content, archived, title
		FROM conversations WHERE id = ?
	`, string(id))
	return scanConversation(row)
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, updated_at, content, archived, title
		FROM conversations WHERE archived = 0
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var result []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return result, nil
}

func (s *SQLiteStore) Archive(ctx context.Context, id domain.ConversationId) (domain.Conversation, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET archived = 1, updated_at = ? WHERE id = ?
	`, now.Format(time.RFC3339Nano), string(id))
	if err != nil {
		zlog.FromContext(ctx).Error().Err(err).Str("conversation_id", string(id)).Msg("archive conversation")
		return domain.Conversation{}, fmt.Errorf("failed to archive conversation: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) SetTitle(ctx context.Context, id domain.ConversationId, title string) (domain.Conversation, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?
	`, title, now.Format(time.RFC3339Nano), string(id))
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to set conversation title: %w", err)
	}
	return s.Get(ctx, id)
}

// rowScanner abstracts *sql.Row and *sql.Rows, both of which Scan the same
// way.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (domain.Conversation, error) {
	var (
		id, createdAt, updatedAt, content string
		archived                          int
		title                             sql.NullString
	)
	if err := row.Scan(&id, &createdAt, &updatedAt, &content, &archived, &title); err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to scan conversation: %w", err)
	}

	var conversationCtx domain.Context
	if err := json.Unmarshal([]byte(content), &conversationCtx); err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to unmarshal context: %w", err)
	}

	createdAtTime, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	updatedAtTime, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return domain.Conversation{
		ID:        domain.ConversationId(id),
		Title:     title.String,
		Context:   conversationCtx,
		Archived:  archived != 0,
		CreatedAt: createdAtTime,
		UpdatedAt: updatedAtTime,
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ ConversationStore = (*SQLiteStore)(nil)
