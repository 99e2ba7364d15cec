package curation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store runs the periodic best-review and reviewer-stat sweeps. Nothing in
// here sits on the interaction hot path.
type Store interface {
	RecomputeBestReviews(ctx context.Context, eventID *int64) (int, error)
	RecomputeAllScopes(ctx context.Context) (int, error)
	RecomputeReviewerStats(ctx context.Context) (int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// RecomputeBestReviews re-elects the best review for one scope: a concrete
// event when eventID is set, otherwise the pool of free-text-event reviews.
// The flag swap runs in a single transaction so readers never observe zero
// or two flagged reviews in the scope. Returns how many rows changed, which
// is 0 when the standing winner keeps its crown.
func (r *Repository) RecomputeBestReviews(ctx context.Context, eventID *int64) (updated int, err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	scope := "r.event_id IS NULL"
	args := []any{}
	if eventID != nil {
		scope = "r.event_id = $1"
		args = append(args, *eventID)
	}

	query := fmt.Sprintf(`
        SELECT r.id,
               (SELECT COUNT(*) FROM review_likes l WHERE l.review_id = r.id),
               (SELECT COUNT(*) FROM review_helpful_votes h WHERE h.review_id = r.id),
               r.created_at,
               r.is_best_review
        FROM reviews r
        WHERE %s
    `, scope)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to load candidates: %w", err)
	}

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.LikeCount, &c.HelpfulCount, &c.CreatedAt, &c.IsBest); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	winner := PickWinner(candidates)
	if winner == 0 {
		return 0, tx.Commit(ctx)
	}

	clearQuery := fmt.Sprintf(`
        UPDATE reviews r
        SET is_best_review = false, best_review_date = NULL
        WHERE %s AND r.is_best_review AND r.id <> $%d
    `, scope, len(args)+1)
	tag, err := tx.Exec(ctx, clearQuery, append(args, winner)...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear stale best flags: %w", err)
	}
	updated += int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
        UPDATE reviews
        SET is_best_review = true, best_review_date = now()
        WHERE id = $1 AND NOT is_best_review
    `, winner)
	if err != nil {
		return 0, fmt.Errorf("failed to set best flag: %w", err)
	}
	updated += int(tag.RowsAffected())

	return updated, tx.Commit(ctx)
}

// RecomputeAllScopes sweeps every event that has reviews, then the
// free-text scope. Each scope commits independently.
func (r *Repository) RecomputeAllScopes(ctx context.Context) (int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT event_id FROM reviews WHERE event_id IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("failed to list scopes: %w", err)
	}

	var eventIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		eventIDs = append(eventIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var total int
	for _, id := range eventIDs {
		id := id
		updated, err := r.RecomputeBestReviews(ctx, &id)
		if err != nil {
			return total, err
		}
		total += updated
	}

	updated, err := r.RecomputeBestReviews(ctx, nil)
	if err != nil {
		return total, err
	}
	return total + updated, nil
}

// RecomputeReviewerStats refreshes the denormalized per-user aggregates and
// the derived reviewer level. The CASE mirrors LevelFor.
func (r *Repository) RecomputeReviewerStats(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx, `
        WITH counts AS (
            SELECT u.id,
                   (SELECT COUNT(*) FROM reviews rv WHERE rv.author_id = u.id) AS review_count,
                   (SELECT COUNT(*) FROM review_likes l
                      JOIN reviews rv ON rv.id = l.review_id
                     WHERE rv.author_id = u.id) AS likes,
                   (SELECT COUNT(*) FROM reviews rv
                     WHERE rv.author_id = u.id AND rv.is_best_review) AS best_count
            FROM users u
        ), stats AS (
            SELECT c.*,
                   CASE
                       WHEN c.review_count >= 50 AND c.likes >= 500 THEN 'master'
                       WHEN c.review_count >= 20 THEN 'expert'
                       WHEN c.review_count >= 5 THEN 'regular'
                       ELSE 'seedling'
                   END AS level
            FROM counts c
        )
        UPDATE users u
        SET review_count         = s.review_count,
            total_likes_received = s.likes,
            best_review_count    = s.best_count,
            reviewer_level       = s.level
        FROM stats s
        WHERE u.id = s.id
          AND (u.review_count <> s.review_count
               OR u.total_likes_received <> s.likes
               OR u.best_review_count <> s.best_count
               OR u.reviewer_level <> s.level)
    `)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute reviewer stats: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
