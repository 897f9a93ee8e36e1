// Package sqlite implements the conversation store on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/priyansh203/spur-chatbot/internal/model"
	"github.com/priyansh203/spur-chatbot/internal/store"
)

// DB is the SQLite-backed conversation store.
type DB struct {
	db *sql.DB
}

var _ store.Store = (*DB)(nil)

// Open opens (or creates) the SQLite database at path, ensuring the parent
// directory exists.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db at %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db at %s: %w", path, err)
	}

	return &DB{db: db}, nil
}

// EnsureSchema creates the conversations and messages tables if absent.
// Production schema ownership stays with migration tooling; these
// statements only converge a fresh local database.
func (d *DB) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			id         TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id),
			sender          TEXT NOT NULL CHECK (sender IN ('user', 'ai')),
			text            TEXT NOT NULL,
			timestamp       INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id);
	`)
	return err
}

func (d *DB) CreateConversation(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC().UnixNano()
	_, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (id, created_at, updated_at) VALUES (?, ?, ?)`,
		id, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return id, nil
}

func (d *DB) ConversationExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx, `SELECT 1 FROM conversations WHERE id = ?`, id).Scan(&one)
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
		`INSERT INTO messages (id, conversation_id, sender, text, timestamp) VALUES (?, ?, ?, ?, ?)`,
		id, conversationID, string(sender), text, time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	return id, nil
}

func (d *DB) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	// rowid breaks ties when two writes land on the same clock reading,
	// keeping a turn's user message ahead of its ai reply.
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender, text, timestamp
		 FROM messages
		 WHERE conversation_id = ?
		 ORDER BY timestamp ASC, rowid ASC`,
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
		var ts int64
		if err := rows.Scan(&m.ID, &m.ConversationID, &sender, &m.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Sender = model.Sender(sender)
		m.Timestamp = time.Unix(0, ts).UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (d *DB) TouchConversation(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().UnixNano(), id,
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
