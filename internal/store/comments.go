package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// DeletedCommentSentinel replaces the content of a soft-deleted comment.
// The row itself stays so replies keep their place in the thread.
const DeletedCommentSentinel = "[deleted]"

// Comment is a single comment on a review. ParentID is a self-referential
// foreign key; the UI renders one level of nesting but the schema allows
// arbitrary depth.
type Comment struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"review_id"`
	AuthorID  int64     `json:"author_id"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined fields
	AuthorName   string `json:"author_name,omitempty"`
	AuthorAvatar string `json:"author_avatar,omitempty"`

	Replies []*Comment `json:"replies,omitempty"`
}

// IsDeleted reports whether the comment has been replaced by the sentinel.
func (c *Comment) IsDeleted() bool {
	return c.Content == DeletedCommentSentinel
}

type CommentStore struct {
	db *sql.DB
}

// Create inserts a comment after checking that the target review exists and,
// for replies, that the parent comment belongs to the same review. A parent
// on another review is rejected as ErrNotFound just like a missing one.
func (s *CommentStore) Create(ctx context.Context, comment *Comment) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if comment.ParentID != nil {
		var parentReviewID int64
		err := s.db.QueryRowContext(ctx,
			`SELECT review_id FROM comments WHERE id = $1`, *comment.ParentID,
		).Scan(&parentReviewID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to look up parent comment: %w", err)
		}
		if parentReviewID != comment.ReviewID {
			return ErrNotFound
		}
	}

	query := `
        INSERT INTO comments (review_id, author_id, parent_id, content)
        SELECT $1, $2, $3, $4
        WHERE EXISTS (SELECT 1 FROM reviews WHERE id = $1)
        RETURNING id, created_at, updated_at
    `
	var parentID sql.NullInt64
	if comment.ParentID != nil {
		parentID = sql.NullInt64{Int64: *comment.ParentID, Valid: true}
	}

	err := s.db.QueryRowContext(ctx, query,
		comment.ReviewID,
		comment.AuthorID,
		parentID,
		comment.Content,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// the guarded INSERT inserted nothing: review is gone
			return ErrNotFound
		}
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (s *CommentStore) GetByID(ctx context.Context, commentID int64) (*Comment, error) {
	query := `
        SELECT id, review_id, author_id, parent_id, content, created_at, updated_at
        FROM comments
        WHERE id = $1
    `
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var (
		comment  Comment
		parentID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, query, commentID).Scan(
		&comment.ID, &comment.ReviewID, &comment.AuthorID, &parentID,
		&comment.Content, &comment.CreatedAt, &comment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if parentID.Valid {
		comment.ParentID = &parentID.Int64
	}
	return &comment, nil
}

// GetByReviewID returns every comment on a review, newest first, capped at
// MaxCommentsPerReview rows. Callers assemble the thread with BuildCommentTree.
func (s *CommentStore) GetByReviewID(ctx context.Context, reviewID int64) ([]Comment, error) {
	query := `
        SELECT c.id, c.review_id, c.author_id, c.parent_id, c.content,
               c.created_at, c.updated_at, u.nickname, u.avatar_url
        FROM comments c
        JOIN users u ON u.id = c.author_id
        WHERE c.review_id = $1
        ORDER BY c.created_at DESC, c.id DESC
        LIMIT $2
    `
	ctx, cancel := context.WithTimeout(ctx, ListTimeoutDuration)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, reviewID, MaxCommentsPerReview)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var (
			comment  Comment
			parentID sql.NullInt64
			avatar   sql.NullString
		)
		if err := rows.Scan(
			&comment.ID, &comment.ReviewID, &comment.AuthorID, &parentID,
			&comment.Content, &comment.CreatedAt, &comment.UpdatedAt,
			&comment.AuthorName, &avatar,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		if parentID.Valid {
			comment.ParentID = &parentID.Int64
		}
		comment.AuthorAvatar = avatar.String
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

// Update edits the author's comment. Editing a soft-deleted comment is
// rejected with ErrCommentDeleted.
func (s *CommentStore) Update(ctx context.Context, comment *Comment) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM comments WHERE id = $1 AND author_id = $2`,
		comment.ID, comment.AuthorID,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if content == DeletedCommentSentinel {
		return ErrCommentDeleted
	}

	query := `
        UPDATE comments
        SET content = $3, updated_at = now()
        WHERE id = $1 AND author_id = $2
        RETURNING updated_at
    `
	err = s.db.QueryRowContext(ctx, query, comment.ID, comment.AuthorID, comment.Content).
		Scan(&comment.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

// Delete removes a leaf comment outright; a comment that still anchors
// replies keeps its row and has its content replaced by the sentinel so the
// thread shape survives. The leaf check lives inside the delete statement
// itself, so a reply arriving concurrently can never be orphaned by a
// check-then-delete window.
func (s *CommentStore) Delete(ctx context.Context, commentID int64) (softDeleted bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
        DELETE FROM comments
        WHERE id = $1
          AND NOT EXISTS (SELECT 1 FROM comments c WHERE c.parent_id = $1)
    `, commentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete comment: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected > 0 {
		return false, nil
	}

	// nothing deleted: the comment has replies, or it is gone
	result, err = s.db.ExecContext(ctx,
		`UPDATE comments SET content = $2, updated_at = now() WHERE id = $1`,
		commentID, DeletedCommentSentinel,
	)
	if err != nil {
		return false, fmt.Errorf("failed to soft delete comment: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return false, ErrNotFound
	}
	return true, nil
}

// BuildCommentTree assembles the flat comment list into a thread. Roots and
// replies stay ordered by created_at descending with id as the tie-break.
// Soft-deleted comments are kept unless includeDeleted is false, in which
// case only deleted comments that still anchor visible replies survive.
//
// The tree is built from an adjacency map keyed by parent id, never from
// parent/child object references, so a corrupt parent chain cannot cycle.
func BuildCommentTree(comments []Comment, includeDeleted bool) []*Comment {
	byID := make(map[int64]*Comment, len(comments))
	children := make(map[int64][]*Comment)

	for i := range comments {
		c := &comments[i]
		c.Replies = nil
		byID[c.ID] = c
	}

	var roots []*Comment
	for _, c := range byID {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if _, ok := byID[*c.ParentID]; !ok {
			// parent fell outside the fetch cap; surface as a root
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	newestFirst := func(list []*Comment) {
		sort.Slice(list, func(i, j int) bool {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.After(list[j].CreatedAt)
			}
			return list[i].ID > list[j].ID
		})
	}

	var attach func(c *Comment) bool
	attach = func(c *Comment) bool {
		kids := children[c.ID]
		newestFirst(kids)
		for _, kid := range kids {
			if attach(kid) {
				c.Replies = append(c.Replies, kid)
			}
		}
		if !includeDeleted && c.IsDeleted() && len(c.Replies) == 0 {
			return false
		}
		return true
	}

	newestFirst(roots)
	visible := roots[:0]
	for _, root := range roots {
		if attach(root) {
			visible = append(visible, root)
		}
	}
	return visible
}
