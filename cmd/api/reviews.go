package main

import (
	"errors"
	"net/http"
	"strconv"

	"fanfare/internal/mailer"
	"fanfare/internal/params"
	"fanfare/internal/store"

	"github.com/go-chi/chi/v5"
)

// CreateReviewPayload represents the payload for posting a review.
type CreateReviewPayload struct {
	EventID       *int64   `json:"event_id"`
	EventName     string   `json:"event_name" validate:"required,max=200"`
	OverallRating int      `json:"overall_rating" validate:"required,min=1,max=5"`
	ArtistRating  *int16   `json:"artist_rating" validate:"omitempty,min=1,max=5"`
	SoundRating   *int16   `json:"sound_rating" validate:"omitempty,min=1,max=5"`
	ViewRating    *int16   `json:"view_rating" validate:"omitempty,min=1,max=5"`
	CrowdRating   *int16   `json:"crowd_rating" validate:"omitempty,min=1,max=5"`
	Content       string   `json:"content" validate:"required,max=2000"`
	Tags          []string `json:"tags" validate:"omitempty,max=10,dive,reviewtag"`
}

// UpdateReviewPayload carries the mutable review fields. Nil means "leave
// unchanged"; sub-ratings can be cleared by sending null explicitly is not
// supported, a PATCH replaces only what it names.
type UpdateReviewPayload struct {
	OverallRating *int     `json:"overall_rating" validate:"omitempty,min=1,max=5"`
	ArtistRating  *int16   `json:"artist_rating" validate:"omitempty,min=1,max=5"`
	SoundRating   *int16   `json:"sound_rating" validate:"omitempty,min=1,max=5"`
	ViewRating    *int16   `json:"view_rating" validate:"omitempty,min=1,max=5"`
	CrowdRating   *int16   `json:"crowd_rating" validate:"omitempty,min=1,max=5"`
	Content       *string  `json:"content" validate:"omitempty,max=2000"`
	Tags          []string `json:"tags" validate:"omitempty,max=10,dive,reviewtag"`
}

// ReportReviewPayload flags a review for moderation.
type ReportReviewPayload struct {
	Reason      string `json:"reason" validate:"required,oneof=spam abuse spoiler off_topic other"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

// ReviewFeedResponse is one page of the review feed.
type ReviewFeedResponse struct {
	Reviews    []store.Review `json:"reviews"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CreateReview godoc
//
//	@Summary		Post a review
//	@Description	Creates a review for an event. One review per author per event.
//	@Tags			Reviews
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateReviewPayload	true	"Review data"
//	@Success		201		{object}	store.Review
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		409		{object}	error	"Already reviewed"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review := &store.Review{
		AuthorID:      user.ID,
		EventID:       payload.EventID,
		EventName:     payload.EventName,
		OverallRating: payload.OverallRating,
		ArtistRating:  store.NewNullInt16(payload.ArtistRating),
		SoundRating:   store.NewNullInt16(payload.SoundRating),
		ViewRating:    store.NewNullInt16(payload.ViewRating),
		CrowdRating:   store.NewNullInt16(payload.CrowdRating),
		Content:       payload.Content,
		Tags:          payload.Tags,
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		if errors.Is(err, store.ErrConflict) {
			app.conflictResponse(w, r, errors.New("you have already reviewed this event"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, review)
}

// GetReviews godoc
//
//	@Summary		List reviews
//	@Description	Pages the review feed, newest first or by popularity
//	@Tags			Reviews
//	@Produce		json
//	@Param			sort		query		string	false	"latest (default) or popular"
//	@Param			event_id	query		int		false	"Only reviews of this event"
//	@Param			author_id	query		int		false	"Only reviews by this author"
//	@Param			limit		query		int		false	"Page size, 1-100"
//	@Param			cursor		query		string	false	"Opaque cursor from the previous page"
//	@Success		200			{object}	ReviewFeedResponse
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Router			/reviews [get]
func (app *application) getReviewsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := params.ParsePage(q)

	filter := store.ReviewFilter{
		Sort:  q.Get("sort"),
		Limit: page.Limit + 1,
	}
	if filter.Sort != "popular" {
		filter.Sort = "latest"
	}

	if v := q.Get("event_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid event_id"))
			return
		}
		filter.EventID = &id
	}
	if v := q.Get("author_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid author_id"))
			return
		}
		filter.AuthorID = &id
	}

	if viewer := getUserFromContext(r); viewer != nil {
		filter.ViewerID = viewer.ID
	}

	if page.Cursor != "" {
		switch filter.Sort {
		case "popular":
			offset, err := params.DecodeOffsetCursor(page.Cursor)
			if err != nil {
				app.badRequestResponse(w, r, err)
				return
			}
			filter.Offset = offset
		default:
			cursor, err := params.DecodeTimeCursor(page.Cursor)
			if err != nil {
				app.badRequestResponse(w, r, err)
				return
			}
			filter.CreatedBefore = &cursor.CreatedAt
			filter.BeforeID = cursor.ID
		}
	}

	reviews, err := app.store.Reviews.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := ReviewFeedResponse{Reviews: reviews}
	if len(reviews) > page.Limit {
		resp.Reviews = reviews[:page.Limit]
		last := resp.Reviews[len(resp.Reviews)-1]
		switch filter.Sort {
		case "popular":
			resp.NextCursor = params.EncodeOffsetCursor(filter.Offset + page.Limit)
		default:
			resp.NextCursor = params.EncodeTimeCursor(params.TimeCursor{
				CreatedAt: last.CreatedAt,
				ID:        last.ID,
			})
		}
	}

	app.jsonResponse(w, http.StatusOK, resp)
}

// GetReview godoc
//
//	@Summary		Get one review
//	@Tags			Reviews
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	store.Review
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Router			/reviews/{reviewID} [get]
func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := app.parseIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var viewerID int64
	if viewer := getUserFromContext(r); viewer != nil {
		viewerID = viewer.ID
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID, viewerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}

// UpdateReview godoc
//
//	@Summary		Edit a review
//	@Description	Author-only partial update of ratings, content and tags. Someone else's review answers 404.
//	@Tags			Reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			payload		body		UpdateReviewPayload	true	"Fields to change"
//	@Success		200			{object}	store.Review
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [patch]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.parseIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	// a review owned by someone else looks like a missing one, so existence
	// is never leaked to non-owners
	if review.AuthorID != user.ID {
		app.notFoundResponse(w, r, store.ErrNotFound)
		return
	}

	if payload.OverallRating != nil {
		review.OverallRating = *payload.OverallRating
	}
	if payload.ArtistRating != nil {
		review.ArtistRating = store.NewNullInt16(payload.ArtistRating)
	}
	if payload.SoundRating != nil {
		review.SoundRating = store.NewNullInt16(payload.SoundRating)
	}
	if payload.ViewRating != nil {
		review.ViewRating = store.NewNullInt16(payload.ViewRating)
	}
	if payload.CrowdRating != nil {
		review.CrowdRating = store.NewNullInt16(payload.CrowdRating)
	}
	if payload.Content != nil {
		review.Content = *payload.Content
	}
	if payload.Tags != nil {
		review.Tags = payload.Tags
	}

	if err := app.store.Reviews.Update(r.Context(), review); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, review)
}

// DeleteReview godoc
//
//	@Summary		Delete a review
//	@Description	Author-only; someone else's review answers 404. Comments and reactions cascade; uploaded media is cleaned up afterwards.
//	@Tags			Reviews
//	@Produce		json
//	@Param			reviewID	path	int	true	"Review ID"
//	@Success		204
//	@Failure		404	{object}	error	"Not Found"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.parseIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// the author scope in the delete makes someone else's review
	// indistinguishable from a missing one
	mediaURLs, err := app.store.Reviews.Delete(r.Context(), reviewID, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	// media cleanup happens after the row is gone; a failure here only
	// leaks an orphaned asset
	go func() {
		for _, url := range mediaURLs {
			if err := app.deletePhotoFromCloudinary(url); err != nil {
				app.logger.Errorw("review media cleanup failed", "review_id", reviewID, "url", url, "error", err)
			}
		}
	}()

	w.WriteHeader(http.StatusNoContent)
}

// ReportReview godoc
//
//	@Summary		Report a review
//	@Description	Flags a review for moderation. One report per user per review.
//	@Tags			Reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			payload		body		ReportReviewPayload	true	"Report reason"
//	@Success		201			{object}	store.Report
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		409			{object}	error	"Already reported"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/report [post]
func (app *application) reportReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.parseIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ReportReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.store.Reviews.AuthorID(r.Context(), reviewID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	report := &store.Report{
		ReviewID:    reviewID,
		ReporterID:  user.ID,
		Reason:      payload.Reason,
		Description: payload.Description,
	}

	if err := app.store.Reports.Create(r.Context(), report); err != nil {
		if errors.Is(err, store.ErrConflict) {
			app.conflictResponse(w, r, errors.New("you have already reported this review"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if app.config.mail.moderationEmail != "" {
		go func() {
			data := map[string]any{
				"ReviewID":    report.ReviewID,
				"ReporterID":  report.ReporterID,
				"Username":    user.Nickname,
				"Reason":      report.Reason,
				"Description": report.Description,
			}
			if _, err := app.mailer.Send(
				mailer.ReportAlertTemplate, "moderation", app.config.mail.moderationEmail, data,
			); err != nil {
				app.logger.Errorw("moderation alert mail failed", "review_id", report.ReviewID, "error", err)
			}
		}()
	}

	app.jsonResponse(w, http.StatusCreated, report)
}

// parseIDParam reads a positive int64 path parameter.
func (app *application) parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
