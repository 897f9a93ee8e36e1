// Package postgres implements the conversation store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/priyansh203/spur-chatbot/internal/model"
	"github.com/priyansh203/spur-chatbot/internal/store"
)

// DB is the Postgres-backed conversation store.
type DB struct {
	db *sql.DB
}

var _ store.Store = (*DB)(nil)

// Open connects to Postgres using the given DSN.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &DB{db: db}, nil
}

// EnsureSchema converges the conversations and messages tables on a fresh
// database. Migration tooling owns the production schema.
func (d *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			sender          TEXT NOT NULL CHECK (sender IN ('user', 'ai')),
			text            TEXT NOT NULL,
			timestamp       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) CreateConversation(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at, updated_at) VALUES ($1, NOW(), NOW())
		 ON CONFLICT (id) DO NOTHING`,
		id,
	)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return id, nil
}

func (d *DB) ConversationExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, `SELECT 1 FROM conversations WHERE id = $1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check conversation: %w", err)
	}
	return true, nil
}

func (d *DB) AppendMessage(ctx context.Context, conversationID string, sender model.Sender, text string) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender, text, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		id, conversationID, string(sender), text, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	return id, nil
}

func (d *DB) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	// Message ids are UUIDv7, so the id tiebreak keeps causal order when
	// two writes share a timestamp.
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender, text, timestamp
		 FROM messages
		 WHERE conversation_id = $1
		 ORDER BY timestamp ASC, id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		var sender string
		if err := rows.Scan(&m.ID, &m.ConversationID, &sender, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Sender = model.Sender(sender)
		m.Timestamp = m.Timestamp.UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (d *DB) TouchConversation(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = NOW() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Close() error {
	return d.db.Close()
}
