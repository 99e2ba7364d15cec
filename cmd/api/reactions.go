package main

import (
	"errors"
	"net/http"

	"fanfare/internal/notifications"
	"fanfare/internal/store"
)

// ToggleResponse reports the reaction state after a toggle.
type ToggleResponse struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// ToggleLike godoc
//
//	@Summary		Toggle a like
//	@Description	Likes the review, or removes the like if it is already set. Idempotent per state.
//	@Tags			Reactions
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	ToggleResponse
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/like [post]
func (app *application) toggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	app.toggleReaction(w, r, store.ReactionLike)
}

// ToggleBookmark godoc
//
//	@Summary		Toggle a bookmark
//	@Description	Bookmarks are private to the caller and never notify the author
//	@Tags			Reactions
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	ToggleResponse
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/bookmark [post]
func (app *application) toggleBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	app.toggleReaction(w, r, store.ReactionBookmark)
}

// ToggleHelpful godoc
//
//	@Summary		Toggle a helpful vote
//	@Tags			Reactions
//	@Produce		json
//	@Param			reviewID	path		int	true	"Review ID"
//	@Success		200			{object}	ToggleResponse
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/helpful [post]
func (app *application) toggleHelpfulHandler(w http.ResponseWriter, r *http.Request) {
	app.toggleReaction(w, r, store.ReactionHelpful)
}

func (app *application) toggleReaction(w http.ResponseWriter, r *http.Request, kind store.ReactionKind) {
	user := getUserFromContext(r)

	reviewID, err := app.parseIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	authorID, err := app.store.Reviews.AuthorID(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	active, err := app.store.Reactions.Toggle(r.Context(), kind, reviewID, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	count, err := app.store.Reactions.Count(r.Context(), kind, reviewID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// only a newly set like tells the author; removing one is silent, and
	// bookmarks stay private
	if active && kind == store.ReactionLike {
		app.dispatcher.Dispatch(r.Context(), notifications.Event{
			RecipientID: authorID,
			ActorID:     user.ID,
			ActorName:   user.Nickname,
			Type:        store.NotificationLike,
			RelatedID:   reviewID,
			RelatedType: "review",
		})
	}

	app.jsonResponse(w, http.StatusOK, ToggleResponse{Active: active, Count: count})
}
