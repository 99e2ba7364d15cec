package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fanfare/internal/store"
)

func TestToggleLikeHandler(t *testing.T) {
	t.Parallel()

	viewer := &store.User{ID: 2, Nickname: "nina"}

	t.Run("setting a like notifies the author once", func(t *testing.T) {
		t.Parallel()

		creator := &notifCreatorFake{}
		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				authorIDFn: func(context.Context, int64) (int64, error) { return 7, nil },
			},
			Reactions: &reactionsFake{
				toggleFn: func(context.Context, store.ReactionKind, int64, int64) (bool, error) {
					return true, nil
				},
				count: 5,
			},
		}, creator)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodPost, "/v1/reviews/10/like", nil, viewer, map[string]string{"reviewID": "10"})
		app.toggleLikeHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp ToggleResponse
		decodeData(t, rec.Body, &resp)
		if !resp.Active || resp.Count != 5 {
			t.Errorf("resp = %+v, want active with count 5", resp)
		}

		if len(creator.created) != 1 {
			t.Fatalf("created %d notifications, want 1", len(creator.created))
		}
		n := creator.created[0]
		if n.RecipientID != 7 || n.ActorID != 2 || n.Type != store.NotificationLike {
			t.Errorf("unexpected notification %+v", n)
		}
	})

	t.Run("removing a like is silent", func(t *testing.T) {
		t.Parallel()

		creator := &notifCreatorFake{}
		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				authorIDFn: func(context.Context, int64) (int64, error) { return 7, nil },
			},
			Reactions: &reactionsFake{
				toggleFn: func(context.Context, store.ReactionKind, int64, int64) (bool, error) {
					return false, nil
				},
			},
		}, creator)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodPost, "/v1/reviews/10/like", nil, viewer, map[string]string{"reviewID": "10"})
		app.toggleLikeHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if len(creator.created) != 0 {
			t.Errorf("created %d notifications on unlike, want 0", len(creator.created))
		}
	})

	t.Run("liking your own review persists nothing", func(t *testing.T) {
		t.Parallel()

		creator := &notifCreatorFake{}
		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				authorIDFn: func(context.Context, int64) (int64, error) { return viewer.ID, nil },
			},
			Reactions: &reactionsFake{
				toggleFn: func(context.Context, store.ReactionKind, int64, int64) (bool, error) {
					return true, nil
				},
			},
		}, creator)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodPost, "/v1/reviews/10/like", nil, viewer, map[string]string{"reviewID": "10"})
		app.toggleLikeHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if len(creator.created) != 0 {
			t.Errorf("self-like created %d notifications, want 0", len(creator.created))
		}
	})

	t.Run("missing review answers 404", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{},
		}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodPost, "/v1/reviews/99/like", nil, viewer, map[string]string{"reviewID": "99"})
		app.toggleLikeHandler(rec, r)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestToggleBookmarkHandlerNeverNotifies(t *testing.T) {
	t.Parallel()

	creator := &notifCreatorFake{}
	app := newTestApp(t, store.Storage{
		Reviews: &reviewsFake{
			authorIDFn: func(context.Context, int64) (int64, error) { return 7, nil },
		},
		Reactions: &reactionsFake{
			toggleFn: func(context.Context, store.ReactionKind, int64, int64) (bool, error) {
				return true, nil
			},
		},
	}, creator)

	rec := httptest.NewRecorder()
	r := newHandlerRequest(http.MethodPost, "/v1/reviews/10/bookmark", nil,
		&store.User{ID: 2, Nickname: "nina"}, map[string]string{"reviewID": "10"})
	app.toggleBookmarkHandler(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(creator.created) != 0 {
		t.Errorf("bookmark created %d notifications, want 0", len(creator.created))
	}
}
