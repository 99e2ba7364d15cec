package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fanfare/internal/store"
)

func TestDeleteCommentHandler(t *testing.T) {
	t.Parallel()

	author := &store.User{ID: 3, Nickname: "maya"}

	ownComment := func(ctx context.Context, commentID int64) (*store.Comment, error) {
		return &store.Comment{ID: commentID, ReviewID: 1, AuthorID: author.ID, Content: "hi"}, nil
	}

	t.Run("leaf comment is hard deleted", func(t *testing.T) {
		t.Parallel()

		comments := &commentsFake{
			getByIDFn: ownComment,
			deleteFn:  func(context.Context, int64) (bool, error) { return false, nil },
		}
		app := newTestApp(t, store.Storage{Comments: comments}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodDelete, "/v1/comments/5", nil, author, map[string]string{"commentID": "5"})
		app.deleteCommentHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp map[string]string
		decodeData(t, rec.Body, &resp)
		if resp["deleted"] != "hard" {
			t.Errorf("deleted = %q, want hard", resp["deleted"])
		}
		if len(comments.deleted) != 1 || comments.deleted[0] != 5 {
			t.Errorf("deleted = %v, want [5]", comments.deleted)
		}
	})

	t.Run("comment with replies is soft deleted", func(t *testing.T) {
		t.Parallel()

		comments := &commentsFake{
			getByIDFn: ownComment,
			deleteFn:  func(context.Context, int64) (bool, error) { return true, nil },
		}
		app := newTestApp(t, store.Storage{Comments: comments}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodDelete, "/v1/comments/5", nil, author, map[string]string{"commentID": "5"})
		app.deleteCommentHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp map[string]string
		decodeData(t, rec.Body, &resp)
		if resp["deleted"] != "soft" {
			t.Errorf("deleted = %q, want soft", resp["deleted"])
		}
	})

	t.Run("another user's comment is forbidden", func(t *testing.T) {
		t.Parallel()

		comments := &commentsFake{getByIDFn: ownComment}
		app := newTestApp(t, store.Storage{Comments: comments}, nil)

		stranger := &store.User{ID: 99, Nickname: "sam"}
		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodDelete, "/v1/comments/5", nil, stranger, map[string]string{"commentID": "5"})
		app.deleteCommentHandler(rec, r)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
		if len(comments.deleted) != 0 {
			t.Error("forbidden request still deleted something")
		}
	})

	t.Run("missing comment answers 404", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, store.Storage{Comments: &commentsFake{}}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodDelete, "/v1/comments/5", nil, author, map[string]string{"commentID": "5"})
		app.deleteCommentHandler(rec, r)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestGetReviewCommentsHandlerIncludeDeleted(t *testing.T) {
	t.Parallel()

	// one visible root and one soft-deleted root without replies
	thread := func(context.Context, int64) ([]store.Comment, error) {
		return []store.Comment{
			{ID: 1, ReviewID: 10, AuthorID: 3, Content: "loved the light show"},
			{ID: 2, ReviewID: 10, AuthorID: 4, Content: store.DeletedCommentSentinel},
		}, nil
	}
	newApp := func(t *testing.T) *application {
		return newTestApp(t, store.Storage{
			Comments: &commentsFake{getByReviewIDFn: thread},
			Reviews: &reviewsFake{
				authorIDFn: func(context.Context, int64) (int64, error) { return 3, nil },
			},
		}, nil)
	}

	t.Run("deleted comments are hidden by default", func(t *testing.T) {
		t.Parallel()

		app := newApp(t)
		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodGet, "/v1/reviews/10/comments", nil, nil, map[string]string{"reviewID": "10"})
		app.getReviewCommentsHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp CommentThreadResponse
		decodeData(t, rec.Body, &resp)
		if len(resp.Comments) != 1 || resp.Comments[0].ID != 1 {
			t.Fatalf("comments = %+v, want only id 1", resp.Comments)
		}
		if resp.Total != 1 {
			t.Errorf("total = %d, want 1", resp.Total)
		}
	})

	t.Run("include_deleted keeps the placeholders and the total follows", func(t *testing.T) {
		t.Parallel()

		app := newApp(t)
		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodGet, "/v1/reviews/10/comments?include_deleted=true", nil, nil, map[string]string{"reviewID": "10"})
		app.getReviewCommentsHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp CommentThreadResponse
		decodeData(t, rec.Body, &resp)
		if len(resp.Comments) != 2 {
			t.Fatalf("got %d comments, want 2", len(resp.Comments))
		}
		if resp.Total != 2 {
			t.Errorf("total = %d, want 2", resp.Total)
		}
	})

	t.Run("garbage include_deleted is rejected", func(t *testing.T) {
		t.Parallel()

		app := newApp(t)
		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodGet, "/v1/reviews/10/comments?include_deleted=maybe", nil, nil, map[string]string{"reviewID": "10"})
		app.getReviewCommentsHandler(rec, r)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestCreateCommentHandlerRoutesNotifications(t *testing.T) {
	t.Parallel()

	actor := &store.User{ID: 2, Nickname: "nina"}

	newApp := func(creator *notifCreatorFake, parentAuthor int64) *application {
		comments := &commentsFake{
			createFn: func(_ context.Context, c *store.Comment) error {
				c.ID = 50
				return nil
			},
			getByIDFn: func(_ context.Context, commentID int64) (*store.Comment, error) {
				return &store.Comment{ID: commentID, ReviewID: 10, AuthorID: parentAuthor}, nil
			},
		}
		return newTestApp(t, store.Storage{
			Comments: comments,
			Reviews: &reviewsFake{
				authorIDFn: func(context.Context, int64) (int64, error) { return 7, nil },
			},
		}, creator)
	}

	t.Run("top-level comment notifies the review author", func(t *testing.T) {
		t.Parallel()

		creator := &notifCreatorFake{}
		app := newApp(creator, 0)

		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"content": "great set"}`)
		r := newHandlerRequest(http.MethodPost, "/v1/reviews/10/comments", body, actor, map[string]string{"reviewID": "10"})
		app.createCommentHandler(rec, r)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if len(creator.created) != 1 {
			t.Fatalf("created %d notifications, want 1", len(creator.created))
		}
		n := creator.created[0]
		if n.RecipientID != 7 || n.Type != store.NotificationComment || n.RelatedType != "review" {
			t.Errorf("unexpected notification %+v", n)
		}
	})

	t.Run("reply notifies the parent comment author", func(t *testing.T) {
		t.Parallel()

		creator := &notifCreatorFake{}
		app := newApp(creator, 5)

		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"content": "agreed", "parent_id": 40}`)
		r := newHandlerRequest(http.MethodPost, "/v1/reviews/10/comments", body, actor, map[string]string{"reviewID": "10"})
		app.createCommentHandler(rec, r)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		if len(creator.created) != 1 {
			t.Fatalf("created %d notifications, want 1", len(creator.created))
		}
		n := creator.created[0]
		if n.RecipientID != 5 || n.Type != store.NotificationReply || n.RelatedType != "comment" {
			t.Errorf("unexpected notification %+v", n)
		}
	})

	t.Run("blank content is rejected", func(t *testing.T) {
		t.Parallel()

		creator := &notifCreatorFake{}
		app := newApp(creator, 0)

		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"content": ""}`)
		r := newHandlerRequest(http.MethodPost, "/v1/reviews/10/comments", body, actor, map[string]string{"reviewID": "10"})
		app.createCommentHandler(rec, r)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
