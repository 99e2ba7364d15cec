package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Event is a festival or concert that reviews can attach to. Reviews may
// also name an event free-text without a row here.
type Event struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Venue     string    `json:"venue"`
	StartsOn  time.Time `json:"starts_on"`
	EndsOn    time.Time `json:"ends_on"`
	CreatedAt time.Time `json:"created_at"`

	ReviewCount int `json:"review_count"`
}

type EventStore struct {
	db *sql.DB
}

func (s *EventStore) GetByID(ctx context.Context, eventID int64) (*Event, error) {
	query := `
        SELECT e.id, e.name, e.venue, e.starts_on, e.ends_on, e.created_at,
               (SELECT COUNT(*) FROM reviews r WHERE r.event_id = e.id) AS review_count
        FROM events e
        WHERE e.id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var event Event
	err := s.db.QueryRowContext(ctx, query, eventID).Scan(
		&event.ID, &event.Name, &event.Venue, &event.StartsOn, &event.EndsOn,
		&event.CreatedAt, &event.ReviewCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// List pages events by plain offset. Event rows change rarely, so the
// offset cursor's instability under concurrent writes is acceptable here.
func (s *EventStore) List(ctx context.Context, limit, offset int) ([]Event, error) {
	query := `
        SELECT e.id, e.name, e.venue, e.starts_on, e.ends_on, e.created_at,
               (SELECT COUNT(*) FROM reviews r WHERE r.event_id = e.id) AS review_count
        FROM events e
        ORDER BY e.starts_on DESC, e.id DESC
        LIMIT $1 OFFSET $2
    `
	ctx, cancel := context.WithTimeout(ctx, ListTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.ID, &event.Name, &event.Venue, &event.StartsOn, &event.EndsOn,
			&event.CreatedAt, &event.ReviewCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Delete refuses to remove an event that still has reviews attached,
// surfacing ErrHasReviews so the handler can answer 412.
func (s *EventStore) Delete(ctx context.Context, eventID int64) error {
	query := `
        DELETE FROM events e
        WHERE e.id = $1
          AND NOT EXISTS (SELECT 1 FROM reviews r WHERE r.event_id = e.id)
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected > 0 {
		return nil
	}

	// nothing deleted: either missing or still referenced
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrHasReviews
	}
	return ErrNotFound
}
