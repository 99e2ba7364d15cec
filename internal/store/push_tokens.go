package store

import (
	"context"
	"database/sql"
	"fmt"
)

type PushTokenStore struct {
	db *sql.DB
}

// Register stores a device push token for a user. Re-registering the same
// token moves it to its latest owner.
func (s *PushTokenStore) Register(ctx context.Context, userID int64, token string) error {
	query := `
        INSERT INTO push_tokens (user_id, token)
        VALUES ($1, $2)
        ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		return fmt.Errorf("failed to register push token: %w", err)
	}
	return nil
}

func (s *PushTokenStore) GetByUserID(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT token FROM push_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
