package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Report is a user flagging a review for moderation. One report per
// (review, reporter) pair, enforced by a unique constraint.
type Report struct {
	ID          int64     `json:"id"`
	ReviewID    int64     `json:"review_id"`
	ReporterID  int64     `json:"reporter_id"`
	Reason      string    `json:"reason"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReportStore struct {
	db *sql.DB
}

func (s *ReportStore) Create(ctx context.Context, report *Report) error {
	query := `
        INSERT INTO review_reports (review_id, reporter_id, reason, description)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRowContext(ctx, query,
		report.ReviewID, report.ReporterID, report.Reason, report.Description,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}
