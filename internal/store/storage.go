package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrCommentDeleted = errors.New("comment has been deleted")
	ErrHasReviews     = errors.New("event still has reviews")

	// QueryTimeoutDuration bounds single-row mutations. List queries and
	// tree assembly use the longer ListTimeoutDuration since they scan
	// many rows.
	QueryTimeoutDuration = time.Second * 5
	ListTimeoutDuration  = time.Second * 15
)

// MaxCommentsPerReview caps how many comments a single tree listing will
// fetch. Threads past this size are truncated rather than scanned unbounded.
const MaxCommentsPerReview = 500

type Storage struct {
	Reviews interface {
		Create(context.Context, *Review) error
		GetByID(ctx context.Context, reviewID, viewerID int64) (*Review, error)
		List(context.Context, ReviewFilter) ([]Review, error)
		Update(context.Context, *Review) error
		Delete(ctx context.Context, reviewID, authorID int64) ([]string, error)
		AddPhotoURL(ctx context.Context, reviewID, authorID int64, url string) error
		AuthorID(ctx context.Context, reviewID int64) (int64, error)
	}
	Comments interface {
		Create(context.Context, *Comment) error
		GetByID(ctx context.Context, commentID int64) (*Comment, error)
		GetByReviewID(ctx context.Context, reviewID int64) ([]Comment, error)
		Update(context.Context, *Comment) error
		Delete(ctx context.Context, commentID int64) (softDeleted bool, err error)
	}
	Reactions interface {
		Toggle(ctx context.Context, kind ReactionKind, reviewID, userID int64) (bool, error)
		Count(ctx context.Context, kind ReactionKind, reviewID int64) (int, error)
	}
	Notifications interface {
		Create(context.Context, *Notification) error
		List(context.Context, NotificationFilter) ([]Notification, error)
		UnreadCount(ctx context.Context, recipientID int64) (int, error)
		MarkRead(ctx context.Context, notificationID, recipientID int64) error
		MarkAllRead(ctx context.Context, recipientID int64) error
		Delete(ctx context.Context, notificationID, recipientID int64) error
	}
	Reports interface {
		Create(context.Context, *Report) error
	}
	Events interface {
		GetByID(ctx context.Context, eventID int64) (*Event, error)
		List(ctx context.Context, limit, offset int) ([]Event, error)
		Delete(ctx context.Context, eventID int64) error
	}
	Users interface {
		GetByID(ctx context.Context, userID int64) (*User, error)
	}
	Follows interface {
		Follow(ctx context.Context, followerID, userID int64) error
		Unfollow(ctx context.Context, followerID, userID int64) error
	}
	PushTokens interface {
		Register(ctx context.Context, userID int64, token string) error
		GetByUserID(ctx context.Context, userID int64) ([]string, error)
	}
}

func NewStorage(db *sql.DB) Storage {
	return Storage{
		Reviews:       &ReviewStore{db},
		Comments:      &CommentStore{db},
		Reactions:     &ReactionStore{db},
		Notifications: &NotificationStore{db},
		Reports:       &ReportStore{db},
		Events:        &EventStore{db},
		Users:         &UsersStore{db},
		Follows:       &FollowStore{db},
		PushTokens:    &PushTokenStore{db},
	}
}
