package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mondaychat/monday/internal/chat"
)

// Message is one durable transcript row, written when a session ends.
type Message struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	SaidOn    time.Time `db:"said_on"`
	TsMs      int64     `db:"ts_ms"`
	CreatedAt time.Time `db:"created_at"`
}

// MessageRepository handles message database operations
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// InsertBatch flushes a session's entries to the messages table and
// returns how many rows were written. Summary entries are flushed too;
// they carry the compacted history.
func (r *MessageRepository) InsertBatch(ctx context.Context, sessionID string, entries []chat.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin flush: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO messages (id, session_id, role, content, said_on, ts_ms, created_at)
		VALUES (:id, :session_id, :role, :content, :said_on, :ts_ms, :created_at)`

	saved := 0
	now := time.Now()
	for _, e := range entries {
		when := time.UnixMilli(e.Timestamp).In(chat.KST)
		row := Message{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			Role:      string(e.Role),
			Content:   e.Text,
			SaidOn:    when,
			TsMs:      e.Timestamp,
			CreatedAt: now,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return 0, fmt.Errorf("insert message: %w", err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit flush: %w", err)
	}
	return saved, nil
}

// CountBySession returns the number of flushed rows for a session.
func (r *MessageRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM messages WHERE session_id = $1`

	if err := r.db.GetContext(ctx, &count, query, sessionID); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}

	return count, nil
}
