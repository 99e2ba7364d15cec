package main

import (
	"errors"
	"net/http"
	"strconv"

	"fanfare/internal/notifications"
	"fanfare/internal/store"
)

// CreateCommentPayload represents the payload for commenting on a review.
// ParentID turns the comment into a reply; the parent must belong to the
// same review.
type CreateCommentPayload struct {
	Content  string `json:"content" validate:"required,max=1000"`
	ParentID *int64 `json:"parent_id"`
}

// UpdateCommentPayload edits a comment's text.
type UpdateCommentPayload struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// CommentThreadResponse is the assembled comment tree of one review.
type CommentThreadResponse struct {
	Comments []*store.Comment `json:"comments"`
	Total    int              `json:"total"`
}

// CreateComment godoc
//
//	@Summary		Comment on a review
//	@Description	Adds a comment, or a reply when parent_id is set
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int						true	"Review ID"
//	@Param			payload		body		CreateCommentPayload	true	"Comment data"
//	@Success		201			{object}	store.Comment
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		404			{object}	error	"Review or parent comment not found"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID}/comments [post]
func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := app.parseIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	comment := &store.Comment{
		ReviewID: reviewID,
		AuthorID: user.ID,
		ParentID: payload.ParentID,
		Content:  payload.Content,
	}

	if err := app.store.Comments.Create(r.Context(), comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.notifyCommented(r, comment)

	app.jsonResponse(w, http.StatusCreated, comment)
}

// notifyCommented routes the notification: a reply goes to the parent
// comment's author, a top-level comment to the review's author. Lookup
// failures only cost the notification, never the comment.
func (app *application) notifyCommented(r *http.Request, comment *store.Comment) {
	user := getUserFromContext(r)

	event := notifications.Event{
		ActorID:   user.ID,
		ActorName: user.Nickname,
	}

	if comment.ParentID != nil {
		parent, err := app.store.Comments.GetByID(r.Context(), *comment.ParentID)
		if err != nil {
			app.logger.Errorw("reply notification lookup failed", "parent_id", *comment.ParentID, "error", err)
			return
		}
		event.RecipientID = parent.AuthorID
		event.Type = store.NotificationReply
		event.RelatedID = comment.ID
		event.RelatedType = "comment"
	} else {
		authorID, err := app.store.Reviews.AuthorID(r.Context(), comment.ReviewID)
		if err != nil {
			app.logger.Errorw("comment notification lookup failed", "review_id", comment.ReviewID, "error", err)
			return
		}
		event.RecipientID = authorID
		event.Type = store.NotificationComment
		event.RelatedID = comment.ReviewID
		event.RelatedType = "review"
	}

	app.dispatcher.Dispatch(r.Context(), event)
}

// GetReviewComments godoc
//
//	@Summary		List a review's comments
//	@Description	Returns the threaded comment tree, newest first at every level. Deleted comments without visible replies are hidden unless include_deleted is set.
//	@Tags			Comments
//	@Produce		json
//	@Param			reviewID		path		int		true	"Review ID"
//	@Param			include_deleted	query		bool	false	"Keep deleted placeholders in the tree"
//	@Success		200				{object}	CommentThreadResponse
//	@Failure		400				{object}	error	"Bad Request"
//	@Failure		404				{object}	error	"Not Found"
//	@Failure		500				{object}	error	"Internal Server Error"
//	@Router			/reviews/{reviewID}/comments [get]
func (app *application) getReviewCommentsHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := app.parseIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	includeDeleted := false
	if raw := r.URL.Query().Get("include_deleted"); raw != "" {
		includeDeleted, err = strconv.ParseBool(raw)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("include_deleted must be a boolean"))
			return
		}
	}

	if _, err := app.store.Reviews.AuthorID(r.Context(), reviewID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	comments, err := app.store.Comments.GetByReviewID(r.Context(), reviewID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	tree := store.BuildCommentTree(comments, includeDeleted)

	app.jsonResponse(w, http.StatusOK, CommentThreadResponse{
		Comments: tree,
		Total:    countComments(tree),
	})
}

// countComments tallies the comments actually present in the tree, so the
// total always matches what filtering left visible.
func countComments(tree []*store.Comment) int {
	total := 0
	for _, c := range tree {
		total += 1 + countComments(c.Replies)
	}
	return total
}

// UpdateComment godoc
//
//	@Summary		Edit a comment
//	@Description	Author-only. Deleted comments cannot be edited.
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Param			commentID	path		int						true	"Comment ID"
//	@Param			payload		body		UpdateCommentPayload	true	"New content"
//	@Success		200			{object}	store.Comment
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		403			{object}	error	"Forbidden"
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/comments/{commentID} [patch]
func (app *application) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	commentID, err := app.parseIDParam(r, "commentID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	comment, err := app.store.Comments.GetByID(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if comment.AuthorID != user.ID {
		app.forbiddenResponse(w, r)
		return
	}

	comment.Content = payload.Content
	if err := app.store.Comments.Update(r.Context(), comment); err != nil {
		switch {
		case errors.Is(err, store.ErrCommentDeleted):
			app.badRequestResponse(w, r, errors.New("comment has been deleted"))
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.jsonResponse(w, http.StatusOK, comment)
}

// DeleteComment godoc
//
//	@Summary		Delete a comment
//	@Description	Author-only. A comment with replies is replaced by a deletion marker so the thread keeps its shape; a leaf comment is removed outright.
//	@Tags			Comments
//	@Produce		json
//	@Param			commentID	path		int	true	"Comment ID"
//	@Success		200			{object}	map[string]string
//	@Failure		403			{object}	error	"Forbidden"
//	@Failure		404			{object}	error	"Not Found"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/comments/{commentID} [delete]
func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	commentID, err := app.parseIDParam(r, "commentID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	comment, err := app.store.Comments.GetByID(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if comment.AuthorID != user.ID {
		app.forbiddenResponse(w, r)
		return
	}

	softDeleted, err := app.store.Comments.Delete(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	mode := "hard"
	if softDeleted {
		mode = "soft"
	}
	app.jsonResponse(w, http.StatusOK, map[string]string{"deleted": mode})
}
