package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"fanfare/internal/notifications"
	"fanfare/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// The fakes below cover only what the handlers under test touch; any method
// a test forgets to stub answers ErrNotFound.

type reviewsFake struct {
	authorIDFn func(ctx context.Context, reviewID int64) (int64, error)
	listFn     func(ctx context.Context, filter store.ReviewFilter) ([]store.Review, error)
	getByIDFn  func(ctx context.Context, reviewID, viewerID int64) (*store.Review, error)
	deleteFn   func(ctx context.Context, reviewID, authorID int64) ([]string, error)
}

func (f *reviewsFake) Create(context.Context, *store.Review) error { return store.ErrNotFound }

func (f *reviewsFake) GetByID(ctx context.Context, reviewID, viewerID int64) (*store.Review, error) {
	if f.getByIDFn == nil {
		return nil, store.ErrNotFound
	}
	return f.getByIDFn(ctx, reviewID, viewerID)
}

func (f *reviewsFake) List(ctx context.Context, filter store.ReviewFilter) ([]store.Review, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, filter)
}

func (f *reviewsFake) Update(context.Context, *store.Review) error { return store.ErrNotFound }

func (f *reviewsFake) Delete(ctx context.Context, reviewID, authorID int64) ([]string, error) {
	if f.deleteFn == nil {
		return nil, store.ErrNotFound
	}
	return f.deleteFn(ctx, reviewID, authorID)
}

func (f *reviewsFake) AddPhotoURL(context.Context, int64, int64, string) error {
	return store.ErrNotFound
}

func (f *reviewsFake) AuthorID(ctx context.Context, reviewID int64) (int64, error) {
	if f.authorIDFn == nil {
		return 0, store.ErrNotFound
	}
	return f.authorIDFn(ctx, reviewID)
}

type reactionsFake struct {
	toggleFn func(ctx context.Context, kind store.ReactionKind, reviewID, userID int64) (bool, error)
	count    int
}

func (f *reactionsFake) Toggle(ctx context.Context, kind store.ReactionKind, reviewID, userID int64) (bool, error) {
	return f.toggleFn(ctx, kind, reviewID, userID)
}

func (f *reactionsFake) Count(context.Context, store.ReactionKind, int64) (int, error) {
	return f.count, nil
}

type commentsFake struct {
	getByIDFn       func(ctx context.Context, commentID int64) (*store.Comment, error)
	getByReviewIDFn func(ctx context.Context, reviewID int64) ([]store.Comment, error)
	createFn        func(ctx context.Context, c *store.Comment) error
	deleteFn        func(ctx context.Context, commentID int64) (bool, error)

	mu      sync.Mutex
	deleted []int64
}

func (f *commentsFake) Create(ctx context.Context, c *store.Comment) error {
	if f.createFn == nil {
		return store.ErrNotFound
	}
	return f.createFn(ctx, c)
}

func (f *commentsFake) GetByID(ctx context.Context, commentID int64) (*store.Comment, error) {
	if f.getByIDFn == nil {
		return nil, store.ErrNotFound
	}
	return f.getByIDFn(ctx, commentID)
}

func (f *commentsFake) GetByReviewID(ctx context.Context, reviewID int64) ([]store.Comment, error) {
	if f.getByReviewIDFn == nil {
		return nil, nil
	}
	return f.getByReviewIDFn(ctx, reviewID)
}

func (f *commentsFake) Update(context.Context, *store.Comment) error { return store.ErrNotFound }

func (f *commentsFake) Delete(ctx context.Context, commentID int64) (bool, error) {
	f.mu.Lock()
	f.deleted = append(f.deleted, commentID)
	f.mu.Unlock()
	if f.deleteFn == nil {
		return false, store.ErrNotFound
	}
	return f.deleteFn(ctx, commentID)
}

type notifCreatorFake struct {
	mu      sync.Mutex
	created []*store.Notification
}

func (f *notifCreatorFake) Create(_ context.Context, n *store.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, n)
	return nil
}

func newTestApp(t *testing.T, storage store.Storage, creator notifications.NotificationCreator) *application {
	t.Helper()

	logger := zap.NewNop().Sugar()
	if creator == nil {
		creator = &notifCreatorFake{}
	}
	return &application{
		store:      storage,
		dispatcher: notifications.NewDispatcher(creator, nil, nil, logger),
		logger:     logger,
	}
}

// newHandlerRequest builds a request carrying chi URL params and, when user
// is non-nil, the authenticated identity.
func newHandlerRequest(method, target string, body io.Reader, user *store.User, urlParams map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, body)

	rctx := chi.NewRouteContext()
	for k, v := range urlParams {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if user != nil {
		ctx = context.WithValue(ctx, userCtx, user)
	}
	return r.WithContext(ctx)
}

func decodeData(t *testing.T, body io.Reader, dst any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}
