package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Review is an event review. Like/comment/helpful counts and the viewer
// flags are computed at read time from the reaction tables, so they are
// always consistent with the toggle state.
type Review struct {
	ID             int64          `json:"id"`
	AuthorID       int64          `json:"author_id"`
	EventID        *int64         `json:"event_id"`
	EventName      string         `json:"event_name"`
	OverallRating  int            `json:"overall_rating"` // 1-5
	ArtistRating   NullInt16      `json:"artist_rating"`
	SoundRating    NullInt16      `json:"sound_rating"`
	ViewRating     NullInt16      `json:"view_rating"`
	CrowdRating    NullInt16      `json:"crowd_rating"`
	Content        string         `json:"content"`
	Tags           pq.StringArray `json:"tags" swaggertype:"array,string"`
	MediaURLs      pq.StringArray `json:"media_urls" swaggertype:"array,string"`
	IsBestReview   bool           `json:"is_best_review"`
	BestReviewDate *time.Time     `json:"best_review_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	// Joined fields
	AuthorName    string `json:"author_name,omitempty"`
	AuthorAvatar  string `json:"author_avatar,omitempty"`
	ReviewerLevel string `json:"reviewer_level,omitempty"`

	// Read-time aggregates
	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
	HelpfulCount int `json:"helpful_count"`

	// Viewer enrichment, always false for anonymous callers
	IsLiked      bool `json:"is_liked"`
	IsBookmarked bool `json:"is_bookmarked"`
}

// ReviewFilter narrows and orders a review listing. Limit is the raw fetch
// size, so callers asking for a page pass page size + 1 and pop the extra
// row themselves.
type ReviewFilter struct {
	EventID  *int64
	AuthorID *int64
	Sort     string // "latest" or "popular"
	Limit    int
	ViewerID int64

	// Time-cursor boundary, used by the "latest" sort. Strictly before
	// (CreatedBefore, BeforeID) in (created_at, id) order.
	CreatedBefore *time.Time
	BeforeID      int64

	// Offset, used by the "popular" sort where a strict boundary cursor
	// is not possible against a live aggregate ordering.
	Offset int
}

type ReviewStore struct {
	db *sql.DB
}

const reviewColumns = `
        r.id, r.author_id, r.event_id, r.event_name, r.overall_rating,
        r.artist_rating, r.sound_rating, r.view_rating, r.crowd_rating,
        r.content, r.tags, r.media_urls, r.is_best_review, r.best_review_date,
        r.created_at, r.updated_at,
        u.nickname, u.avatar_url, u.reviewer_level,
        (SELECT COUNT(*) FROM review_likes l WHERE l.review_id = r.id) AS like_count,
        (SELECT COUNT(*) FROM comments c WHERE c.review_id = r.id) AS comment_count,
        (SELECT COUNT(*) FROM review_helpful_votes h WHERE h.review_id = r.id) AS helpful_count,
        EXISTS (SELECT 1 FROM review_likes l WHERE l.review_id = r.id AND l.user_id = $1) AS is_liked,
        EXISTS (SELECT 1 FROM review_bookmarks b WHERE b.review_id = r.id AND b.user_id = $1) AS is_bookmarked`

func scanReview(row interface{ Scan(dest ...any) error }, review *Review) error {
	var (
		eventID  sql.NullInt64
		bestDate sql.NullTime
		avatar   sql.NullString
	)
	err := row.Scan(
		&review.ID, &review.AuthorID, &eventID, &review.EventName, &review.OverallRating,
		&review.ArtistRating, &review.SoundRating, &review.ViewRating, &review.CrowdRating,
		&review.Content, &review.Tags, &review.MediaURLs, &review.IsBestReview, &bestDate,
		&review.CreatedAt, &review.UpdatedAt,
		&review.AuthorName, &avatar, &review.ReviewerLevel,
		&review.LikeCount, &review.CommentCount, &review.HelpfulCount,
		&review.IsLiked, &review.IsBookmarked,
	)
	if err != nil {
		return err
	}
	if eventID.Valid {
		review.EventID = &eventID.Int64
	}
	if bestDate.Valid {
		t := bestDate.Time
		review.BestReviewDate = &t
	}
	review.AuthorAvatar = avatar.String
	return nil
}

// Create inserts a review. A second review by the same author for the same
// event violates the partial unique index and surfaces as ErrConflict.
func (s *ReviewStore) Create(ctx context.Context, review *Review) error {
	query := `
        INSERT INTO reviews
            (author_id, event_id, event_name, overall_rating, artist_rating,
             sound_rating, view_rating, crowd_rating, content, tags, media_urls)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var eventID sql.NullInt64
	if review.EventID != nil {
		eventID = sql.NullInt64{Int64: *review.EventID, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, query,
		review.AuthorID,
		eventID,
		review.EventName,
		review.OverallRating,
		review.ArtistRating.NullInt16(),
		review.SoundRating.NullInt16(),
		review.ViewRating.NullInt16(),
		review.CrowdRating.NullInt16(),
		review.Content,
		pq.Array([]string(review.Tags)),
		pq.Array([]string(review.MediaURLs)),
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// GetByID returns a single review with aggregates. viewerID may be zero for
// anonymous callers, which makes the enrichment flags come back false.
func (s *ReviewStore) GetByID(ctx context.Context, reviewID, viewerID int64) (*Review, error) {
	query := `
        SELECT ` + reviewColumns + `
        FROM reviews r
        JOIN users u ON u.id = r.author_id
        WHERE r.id = $2
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var review Review
	err := scanReview(s.db.QueryRowContext(ctx, query, viewerID, reviewID), &review)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// List returns reviews ordered per the filter. The "latest" sort pages with
// a strict (created_at, id) boundary so concurrent inserts never shift the
// window. The "popular" sort orders by the live like-count aggregate and
// falls back to an offset, which is documented as non-stable under
// concurrent mutation.
func (s *ReviewStore) List(ctx context.Context, filter ReviewFilter) ([]Review, error) {
	var (
		where []string
		args  = []any{filter.ViewerID}
	)

	if filter.EventID != nil {
		args = append(args, *filter.EventID)
		where = append(where, fmt.Sprintf("r.event_id = $%d", len(args)))
	}
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		where = append(where, fmt.Sprintf("r.author_id = $%d", len(args)))
	}

	var orderBy, paging string
	switch filter.Sort {
	case "popular":
		orderBy = "like_count DESC, r.created_at DESC, r.id DESC"
		args = append(args, filter.Limit, filter.Offset)
		paging = fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	default: // latest
		if filter.CreatedBefore != nil {
			args = append(args, *filter.CreatedBefore, filter.BeforeID)
			where = append(where, fmt.Sprintf("(r.created_at, r.id) < ($%d, $%d)", len(args)-1, len(args)))
		}
		orderBy = "r.created_at DESC, r.id DESC"
		args = append(args, filter.Limit)
		paging = fmt.Sprintf("LIMIT $%d", len(args))
	}

	query := `
        SELECT ` + reviewColumns + `
        FROM reviews r
        JOIN users u ON u.id = r.author_id`
	if len(where) > 0 {
		query += "\n        WHERE " + strings.Join(where, " AND ")
	}
	query += "\n        ORDER BY " + orderBy + "\n        " + paging

	ctx, cancel := context.WithTimeout(ctx, ListTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		if err := scanReview(rows, &review); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// Update patches the mutable fields of a review. Only the author can update;
// a non-owner (or missing review) comes back as ErrNotFound.
func (s *ReviewStore) Update(ctx context.Context, review *Review) error {
	query := `
        UPDATE reviews
        SET overall_rating = $3, artist_rating = $4, sound_rating = $5,
            view_rating = $6, crowd_rating = $7, content = $8, tags = $9,
            updated_at = now()
        WHERE id = $1 AND author_id = $2
        RETURNING updated_at
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRowContext(ctx, query,
		review.ID,
		review.AuthorID,
		review.OverallRating,
		review.ArtistRating.NullInt16(),
		review.SoundRating.NullInt16(),
		review.ViewRating.NullInt16(),
		review.CrowdRating.NullInt16(),
		review.Content,
		pq.Array([]string(review.Tags)),
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update review: %w", err)
	}
	return nil
}

// Delete removes the author's review and returns its media URLs so the
// caller can clean up external storage afterwards. Comments and reaction
// rows go with it via ON DELETE CASCADE.
func (s *ReviewStore) Delete(ctx context.Context, reviewID, authorID int64) ([]string, error) {
	query := `
        DELETE FROM reviews
        WHERE id = $1 AND author_id = $2
        RETURNING media_urls
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var media pq.StringArray
	err := s.db.QueryRowContext(ctx, query, reviewID, authorID).Scan(&media)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete review: %w", err)
	}
	return media, nil
}

// AddPhotoURL appends an uploaded media URL to the author's review.
func (s *ReviewStore) AddPhotoURL(ctx context.Context, reviewID, authorID int64, url string) error {
	query := `
        UPDATE reviews
        SET media_urls = array_append(media_urls, $3), updated_at = now()
        WHERE id = $1 AND author_id = $2
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx, query, reviewID, authorID, url)
	if err != nil {
		return fmt.Errorf("failed to add photo url: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AuthorID resolves the owner of a review, ErrNotFound when it is missing.
func (s *ReviewStore) AuthorID(ctx context.Context, reviewID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var authorID int64
	err := s.db.QueryRowContext(ctx, `SELECT author_id FROM reviews WHERE id = $1`, reviewID).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return authorID, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
