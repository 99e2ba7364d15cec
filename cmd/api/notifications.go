package main

import (
	"errors"
	"net/http"
	"strconv"

	"fanfare/internal/params"
	"fanfare/internal/store"
)

// NotificationPageResponse is one page of the caller's notification inbox.
type NotificationPageResponse struct {
	Notifications []store.Notification `json:"notifications"`
	NextCursor    string               `json:"next_cursor,omitempty"`
}

// GetNotifications godoc
//
//	@Summary		List notifications
//	@Description	Pages the caller's notifications, newest first
//	@Tags			Notifications
//	@Produce		json
//	@Param			limit		query		int		false	"Page size, 1-100"
//	@Param			cursor		query		string	false	"Opaque cursor from the previous page"
//	@Param			unread_only	query		bool	false	"Only unread notifications"
//	@Success		200			{object}	NotificationPageResponse
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/notifications [get]
func (app *application) getNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	q := r.URL.Query()
	page := params.ParsePage(q)

	filter := store.NotificationFilter{
		RecipientID: user.ID,
		Limit:       page.Limit + 1,
	}
	if v := q.Get("unread_only"); v != "" {
		unreadOnly, err := strconv.ParseBool(v)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid unread_only"))
			return
		}
		filter.UnreadOnly = unreadOnly
	}
	if page.Cursor != "" {
		cursor, err := params.DecodeTimeCursor(page.Cursor)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		filter.CreatedBefore = &cursor.CreatedAt
		filter.BeforeID = cursor.ID
	}

	items, err := app.store.Notifications.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := NotificationPageResponse{Notifications: items}
	if len(items) > page.Limit {
		resp.Notifications = items[:page.Limit]
		last := resp.Notifications[len(resp.Notifications)-1]
		resp.NextCursor = params.EncodeTimeCursor(params.TimeCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	app.jsonResponse(w, http.StatusOK, resp)
}

// GetUnreadCount godoc
//
//	@Summary		Unread notification count
//	@Tags			Notifications
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/notifications/unread-count [get]
func (app *application) getUnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	count, err := app.store.Notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkNotificationRead godoc
//
//	@Summary		Mark one notification read
//	@Tags			Notifications
//	@Produce		json
//	@Param			notificationID	path	int	true	"Notification ID"
//	@Success		204
//	@Failure		404	{object}	error	"Not Found"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/notifications/{notificationID}/read [put]
func (app *application) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	notificationID, err := app.parseIDParam(r, "notificationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Notifications.MarkRead(r.Context(), notificationID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllNotificationsRead godoc
//
//	@Summary		Mark every notification read
//	@Tags			Notifications
//	@Produce		json
//	@Success		204
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/notifications/read-all [put]
func (app *application) markAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.store.Notifications.MarkAllRead(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteNotification godoc
//
//	@Summary		Delete a notification
//	@Tags			Notifications
//	@Produce		json
//	@Param			notificationID	path	int	true	"Notification ID"
//	@Success		204
//	@Failure		404	{object}	error	"Not Found"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/notifications/{notificationID} [delete]
func (app *application) deleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	notificationID, err := app.parseIDParam(r, "notificationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Notifications.Delete(r.Context(), notificationID, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
