package main

import (
	"errors"
	"net/http"

	"fanfare/internal/notifications"
	"fanfare/internal/store"
)

// RegisterPushTokenPayload represents the payload for saving a push token.
type RegisterPushTokenPayload struct {
	Token string `json:"token" validate:"required"`
}

// GetUser godoc
//
//	@Summary		Get a reviewer profile
//	@Description	Returns the profile with its aggregate stats and reviewer level
//	@Tags			Users
//	@Produce		json
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{object}	store.User
//	@Failure		404		{object}	error	"Not Found"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Router			/users/{userID} [get]
func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, user)
}

// FollowUser godoc
//
//	@Summary		Follow a user
//	@Description	Following twice is a no-op
//	@Tags			Users
//	@Produce		json
//	@Param			userID	path	int	true	"User to follow"
//	@Success		204
//	@Failure		400	{object}	error	"Bad Request"
//	@Failure		404	{object}	error	"Not Found"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/follow [put]
func (app *application) followUserHandler(w http.ResponseWriter, r *http.Request) {
	follower := getUserFromContext(r)

	userID, err := app.parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if userID == follower.ID {
		app.badRequestResponse(w, r, errors.New("you cannot follow yourself"))
		return
	}

	if _, err := app.store.Users.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Follows.Follow(r.Context(), follower.ID, userID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.dispatcher.Dispatch(r.Context(), notifications.Event{
		RecipientID: userID,
		ActorID:     follower.ID,
		ActorName:   follower.Nickname,
		Type:        store.NotificationFollow,
		RelatedID:   follower.ID,
		RelatedType: "user",
	})

	w.WriteHeader(http.StatusNoContent)
}

// UnfollowUser godoc
//
//	@Summary		Unfollow a user
//	@Tags			Users
//	@Produce		json
//	@Param			userID	path	int	true	"User to unfollow"
//	@Success		204
//	@Failure		400	{object}	error	"Bad Request"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/unfollow [put]
func (app *application) unfollowUserHandler(w http.ResponseWriter, r *http.Request) {
	follower := getUserFromContext(r)

	userID, err := app.parseIDParam(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Follows.Unfollow(r.Context(), follower.ID, userID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterPushToken godoc
//
//	@Summary		Register a push token
//	@Description	Saves the device's Expo push token; re-registering moves the token to the caller
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	RegisterPushTokenPayload	true	"Push token"
//	@Success		204
//	@Failure		400	{object}	error	"Bad Request"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/users/push-tokens [post]
func (app *application) registerPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload RegisterPushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PushTokens.Register(r.Context(), user.ID, payload.Token); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
