package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReactionKind selects which reaction table a toggle hits. Row existence is
// the whole state: unique (review_id, user_id) per table, no boolean column.
type ReactionKind string

const (
	ReactionLike     ReactionKind = "like"
	ReactionBookmark ReactionKind = "bookmark"
	ReactionHelpful  ReactionKind = "helpful"
)

var reactionTables = map[ReactionKind]string{
	ReactionLike:     "review_likes",
	ReactionBookmark: "review_bookmarks",
	ReactionHelpful:  "review_helpful_votes",
}

type ReactionStore struct {
	db *sql.DB
}

// Toggle flips the reaction for (reviewID, userID) and reports the resulting
// state. The delete-then-insert runs in one transaction; if a concurrent
// toggle wins the insert race, the unique constraint fires and the row is
// simply already active.
func (s *ReactionStore) Toggle(ctx context.Context, kind ReactionKind, reviewID, userID int64) (bool, error) {
	table, ok := reactionTables[kind]
	if !ok {
		return false, fmt.Errorf("unknown reaction kind %q", kind)
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE review_id = $1 AND user_id = $2`, table),
		reviewID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to toggle %s: %w", kind, err)
	}

	if deleted, _ := result.RowsAffected(); deleted > 0 {
		return false, tx.Commit()
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (review_id, user_id) VALUES ($1, $2)`, table),
		reviewID, userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// a concurrent request inserted first; already active
			return true, nil
		}
		return false, fmt.Errorf("failed to toggle %s: %w", kind, err)
	}
	return true, tx.Commit()
}

// Count returns the live reaction count for a review.
func (s *ReactionStore) Count(ctx context.Context, kind ReactionKind, reviewID int64) (int, error) {
	table, ok := reactionTables[kind]
	if !ok {
		return 0, fmt.Errorf("unknown reaction kind %q", kind)
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE review_id = $1`, table),
		reviewID,
	).Scan(&count)
	return count, err
}
