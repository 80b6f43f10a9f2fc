package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ridgeline-auto/dms-api/internal/models"
)

const messageDetailColumns = `m.id, m.sender_id, m.recipient_id, m.subject, m.body, m.read_at, m.created_at,
        s.name AS sender_name, r.name AS recipient_name`

// MessageRepository manages internal staff messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// List returns messages visible to the user (sent or received), newest-first.
func (r *MessageRepository) List(ctx context.Context, filter models.MessageFilter) ([]models.MessageDetail, int, error) {
	base := `FROM messages m
        LEFT JOIN users s ON m.sender_id = s.id
        LEFT JOIN users r ON m.recipient_id = r.id`
	args := []interface{}{filter.UserID}
	conditions := []string{"(m.sender_id = $1 OR m.recipient_id = $1)"}

	if filter.CounterpartyID != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(m.sender_id = $%d OR m.recipient_id = $%d)", idx, idx))
		args = append(args, filter.CounterpartyID)
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "m.read_at IS NULL AND m.recipient_id = $1")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY m.created_at DESC LIMIT %d OFFSET %d",
		messageDetailColumns, base, size, offset)

	var messages []models.MessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}
	return messages, total, nil
}

// FindByID fetches a message by ID.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.MessageDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages m
        LEFT JOIN users s ON m.sender_id = s.id
        LEFT JOIN users r ON m.recipient_id = r.id
        WHERE m.id = $1`, messageDetailColumns)
	var detail models.MessageDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CountUnread returns the number of unread messages addressed to the user.
func (r *MessageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND read_at IS NULL", userID)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// Create inserts a message and its audit entry in one transaction.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message, entry *models.AuditLog) (err error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin message create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO messages (id, sender_id, recipient_id, subject, body, read_at, created_at)
        VALUES (:id, :sender_id, :recipient_id, :subject, :body, :read_at, :created_at)`
	if _, err = tx.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	entry.ResourceID = &msg.ID
	refreshAuditDetails(entry, msg)
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit message create: %w", err)
	}
	return nil
}

// Delete removes a message and records the audit entry in one transaction.
func (r *MessageRepository) Delete(ctx context.Context, id string, entry *models.AuditLog) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin message delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM messages WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	entry.ResourceID = &id
	if err = insertAuditTx(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit message delete: %w", err)
	}
	return nil
}

// MarkRead stamps read_at for a message addressed to the user. Re-reading an
// already-read message keeps the original timestamp.
func (r *MessageRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE messages SET read_at = $1 WHERE id = $2 AND recipient_id = $3 AND read_at IS NULL",
		time.Now().UTC(), id, recipientID)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}
