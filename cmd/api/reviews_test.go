package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fanfare/internal/params"
	"fanfare/internal/store"
)

func feedReviews(n int, newest time.Time) []store.Review {
	reviews := make([]store.Review, n)
	for i := range reviews {
		reviews[i] = store.Review{
			ID:        int64(100 - i),
			CreatedAt: newest.Add(-time.Duration(i) * time.Minute),
		}
	}
	return reviews
}

func TestGetReviewsHandlerPagination(t *testing.T) {
	t.Parallel()

	newest := time.Date(2025, 6, 14, 22, 0, 0, 0, time.UTC)

	t.Run("full page carries a next cursor", func(t *testing.T) {
		t.Parallel()

		var gotFilter store.ReviewFilter
		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				listFn: func(_ context.Context, filter store.ReviewFilter) ([]store.Review, error) {
					gotFilter = filter
					return feedReviews(filter.Limit, newest), nil
				},
			},
		}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodGet, "/v1/reviews?limit=3", nil, nil, nil)
		app.getReviewsHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotFilter.Limit != 4 {
			t.Errorf("store fetched %d rows, want page size + 1 = 4", gotFilter.Limit)
		}

		var resp ReviewFeedResponse
		decodeData(t, rec.Body, &resp)
		if len(resp.Reviews) != 3 {
			t.Fatalf("page holds %d reviews, want 3", len(resp.Reviews))
		}
		if resp.NextCursor == "" {
			t.Fatal("full page came back without a next cursor")
		}

		cursor, err := params.DecodeTimeCursor(resp.NextCursor)
		if err != nil {
			t.Fatalf("decode next cursor: %v", err)
		}
		last := resp.Reviews[len(resp.Reviews)-1]
		if cursor.ID != last.ID || !cursor.CreatedAt.Equal(last.CreatedAt) {
			t.Errorf("cursor = %+v, want boundary of last row %d", cursor, last.ID)
		}
	})

	t.Run("short page ends the feed", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				listFn: func(context.Context, store.ReviewFilter) ([]store.Review, error) {
					return feedReviews(2, newest), nil
				},
			},
		}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodGet, "/v1/reviews?limit=3", nil, nil, nil)
		app.getReviewsHandler(rec, r)

		var resp ReviewFeedResponse
		decodeData(t, rec.Body, &resp)
		if len(resp.Reviews) != 2 {
			t.Fatalf("page holds %d reviews, want 2", len(resp.Reviews))
		}
		if resp.NextCursor != "" {
			t.Errorf("exhausted feed still carries cursor %q", resp.NextCursor)
		}
	})

	t.Run("cursor narrows the next page", func(t *testing.T) {
		t.Parallel()

		var gotFilter store.ReviewFilter
		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				listFn: func(_ context.Context, filter store.ReviewFilter) ([]store.Review, error) {
					gotFilter = filter
					return nil, nil
				},
			},
		}, nil)

		boundary := params.TimeCursor{CreatedAt: newest, ID: 98}
		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodGet, "/v1/reviews?cursor="+params.EncodeTimeCursor(boundary), nil, nil, nil)
		app.getReviewsHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotFilter.CreatedBefore == nil || !gotFilter.CreatedBefore.Equal(newest) || gotFilter.BeforeID != 98 {
			t.Errorf("filter boundary = (%v, %d), want (%v, 98)", gotFilter.CreatedBefore, gotFilter.BeforeID, newest)
		}
	})

	t.Run("popular sort pages by offset cursor", func(t *testing.T) {
		t.Parallel()

		var gotFilter store.ReviewFilter
		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				listFn: func(_ context.Context, filter store.ReviewFilter) ([]store.Review, error) {
					gotFilter = filter
					return feedReviews(filter.Limit, newest), nil
				},
			},
		}, nil)

		rec := httptest.NewRecorder()
		target := "/v1/reviews?sort=popular&limit=3&cursor=" + params.EncodeOffsetCursor(6)
		r := newHandlerRequest(http.MethodGet, target, nil, nil, nil)
		app.getReviewsHandler(rec, r)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotFilter.Offset != 6 {
			t.Errorf("offset = %d, want 6", gotFilter.Offset)
		}

		var resp ReviewFeedResponse
		decodeData(t, rec.Body, &resp)
		if resp.NextCursor == "" {
			t.Fatal("full popular page came back without a next cursor")
		}
		offset, err := params.DecodeOffsetCursor(resp.NextCursor)
		if err != nil {
			t.Fatalf("decode next cursor: %v", err)
		}
		if offset != 9 {
			t.Errorf("next offset = %d, want 9", offset)
		}
	})

	t.Run("garbage cursor answers 400", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, store.Storage{Reviews: &reviewsFake{}}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodGet, "/v1/reviews?cursor=%21%21%21", nil, nil, nil)
		app.getReviewsHandler(rec, r)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("viewer identity flows into the filter", func(t *testing.T) {
		t.Parallel()

		var gotFilter store.ReviewFilter
		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				listFn: func(_ context.Context, filter store.ReviewFilter) ([]store.Review, error) {
					gotFilter = filter
					return nil, nil
				},
			},
		}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodGet, "/v1/reviews", nil, &store.User{ID: 42}, nil)
		app.getReviewsHandler(rec, r)

		if gotFilter.ViewerID != 42 {
			t.Errorf("viewer id = %d, want 42", gotFilter.ViewerID)
		}
	})
}

func TestReviewOwnershipAnswersNotFound(t *testing.T) {
	t.Parallel()

	viewer := &store.User{ID: 2, Nickname: "nina"}

	t.Run("deleting someone else's review answers 404", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				deleteFn: func(_ context.Context, reviewID, authorID int64) ([]string, error) {
					// author-scoped delete finds nothing for a non-owner
					if authorID != 7 {
						return nil, store.ErrNotFound
					}
					return nil, nil
				},
			},
		}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodDelete, "/v1/reviews/10", nil, viewer, map[string]string{"reviewID": "10"})
		app.deleteReviewHandler(rec, r)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("editing someone else's review answers 404", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				getByIDFn: func(_ context.Context, reviewID, viewerID int64) (*store.Review, error) {
					return &store.Review{ID: reviewID, AuthorID: 7, OverallRating: 4}, nil
				},
			},
		}, nil)

		rec := httptest.NewRecorder()
		body := strings.NewReader(`{"content": "rewritten"}`)
		r := newHandlerRequest(http.MethodPatch, "/v1/reviews/10", body, viewer, map[string]string{"reviewID": "10"})
		app.updateReviewHandler(rec, r)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("the author can still delete", func(t *testing.T) {
		t.Parallel()

		var gotAuthorID int64
		app := newTestApp(t, store.Storage{
			Reviews: &reviewsFake{
				deleteFn: func(_ context.Context, reviewID, authorID int64) ([]string, error) {
					gotAuthorID = authorID
					return nil, nil
				},
			},
		}, nil)

		rec := httptest.NewRecorder()
		r := newHandlerRequest(http.MethodDelete, "/v1/reviews/10", nil, viewer, map[string]string{"reviewID": "10"})
		app.deleteReviewHandler(rec, r)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if gotAuthorID != viewer.ID {
			t.Errorf("delete scoped to author %d, want %d", gotAuthorID, viewer.ID)
		}
	})
}
