package store

import (
	"context"
	"database/sql"
	"fmt"
)

type FollowStore struct {
	db *sql.DB
}

// Follow records followerID following userID. Following twice is a no-op,
// same as the reaction tables: the row is the state.
func (s *FollowStore) Follow(ctx context.Context, followerID, userID int64) error {
	query := `
        INSERT INTO followers (user_id, follower_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, userID, followerID)
	if err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}
	return nil
}

func (s *FollowStore) Unfollow(ctx context.Context, followerID, userID int64) error {
	query := `
        DELETE FROM followers
        WHERE user_id = $1 AND follower_id = $2
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, userID, followerID)
	return err
}
