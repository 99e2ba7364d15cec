package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Reviewer level tiers, recomputed by the curation sweep from the user's
// aggregate stats, never on the interaction path.
const (
	LevelSeedling = "seedling"
	LevelRegular  = "regular"
	LevelExpert   = "expert"
	LevelMaster   = "master"
)

// User holds the reviewer profile. The identity itself (credentials, email
// verification) lives with the external auth provider; this row is keyed by
// the stable user id the provider issues.
type User struct {
	ID                 int64     `json:"id"`
	Nickname           string    `json:"nickname"`
	AvatarURL          string    `json:"avatar_url,omitempty"`
	ReviewCount        int       `json:"review_count"`
	TotalLikesReceived int       `json:"total_likes_received"`
	BestReviewCount    int       `json:"best_review_count"`
	ReviewerLevel      string    `json:"reviewer_level"`
	CreatedAt          time.Time `json:"created_at"`
}

type UsersStore struct {
	db *sql.DB
}

func (s *UsersStore) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `
        SELECT id, nickname, avatar_url, review_count, total_likes_received,
               best_review_count, reviewer_level, created_at
        FROM users
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var (
		user   User
		avatar sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Nickname, &avatar, &user.ReviewCount,
		&user.TotalLikesReceived, &user.BestReviewCount, &user.ReviewerLevel,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.AvatarURL = avatar.String
	return &user, nil
}
