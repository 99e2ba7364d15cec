package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Notification types mirror the interaction events that create them.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationReply   = "reply"
	NotificationFollow  = "follow"
)

type Notification struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	ActorID     int64     `json:"actor_id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	RelatedID   int64     `json:"related_id"`
	RelatedType string    `json:"related_type"`
	DedupKey    string    `json:"-"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationFilter pages a recipient's notifications with the same
// (created_at, id) boundary cursor the review feed uses.
type NotificationFilter struct {
	RecipientID   int64
	Limit         int
	CreatedBefore *time.Time
	BeforeID      int64
	UnreadOnly    bool
}

type NotificationStore struct {
	db *sql.DB
}

// Create persists a notification. The dedup key carries a unique index, so a
// client retry that produces the same key within its time bucket inserts
// nothing and is not an error.
func (s *NotificationStore) Create(ctx context.Context, n *Notification) error {
	query := `
        INSERT INTO notifications
            (recipient_id, actor_id, type, title, message, related_id, related_type, dedup_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (dedup_key) DO NOTHING
        RETURNING id, created_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRowContext(ctx, query,
		n.RecipientID, n.ActorID, n.Type, n.Title, n.Message,
		n.RelatedID, n.RelatedType, n.DedupKey,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// duplicate within the dedup bucket, nothing inserted
			return nil
		}
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *NotificationStore) List(ctx context.Context, filter NotificationFilter) ([]Notification, error) {
	query := `
        SELECT id, recipient_id, actor_id, type, title, message,
               related_id, related_type, is_read, created_at
        FROM notifications
        WHERE recipient_id = $1
    `
	args := []any{filter.RecipientID}
	if filter.UnreadOnly {
		query += ` AND NOT is_read`
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore, filter.BeforeID)
		query += fmt.Sprintf(` AND (created_at, id) < ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	ctx, cancel := context.WithTimeout(ctx, ListTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.RecipientID, &n.ActorID, &n.Type, &n.Title, &n.Message,
			&n.RelatedID, &n.RelatedType, &n.IsRead, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`,
		recipientID,
	).Scan(&count)
	return count, err
}

// MarkRead flips one notification; only the recipient can touch it.
func (s *NotificationStore) MarkRead(ctx context.Context, notificationID, recipientID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND recipient_id = $2`,
		notificationID, recipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, recipientID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND NOT is_read`,
		recipientID,
	)
	return err
}

func (s *NotificationStore) Delete(ctx context.Context, notificationID, recipientID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`,
		notificationID, recipientID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
