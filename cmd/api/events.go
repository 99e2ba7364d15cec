package main

import (
	"errors"
	"net/http"

	"fanfare/internal/params"
	"fanfare/internal/store"
)

// EventPageResponse is one page of the event catalog.
type EventPageResponse struct {
	Events     []store.Event `json:"events"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// GetEvents godoc
//
//	@Summary		List events
//	@Description	Pages the event catalog, most recent start date first
//	@Tags			Events
//	@Produce		json
//	@Param			limit	query		int		false	"Page size, 1-100"
//	@Param			cursor	query		string	false	"Opaque cursor from the previous page"
//	@Success		200		{object}	EventPageResponse
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Router			/events [get]
func (app *application) getEventsHandler(w http.ResponseWriter, r *http.Request) {
	page := params.ParsePage(r.URL.Query())

	var offset int
	if page.Cursor != "" {
		var err error
		offset, err = params.DecodeOffsetCursor(page.Cursor)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	events, err := app.store.Events.List(r.Context(), page.Limit+1, offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := EventPageResponse{Events: events}
	if len(events) > page.Limit {
		resp.Events = events[:page.Limit]
		resp.NextCursor = params.EncodeOffsetCursor(offset + page.Limit)
	}

	app.jsonResponse(w, http.StatusOK, resp)
}

// GetEvent godoc
//
//	@Summary		Get one event
//	@Tags			Events
//	@Produce		json
//	@Param			eventID	path		int	true	"Event ID"
//	@Success		200		{object}	store.Event
//	@Failure		404		{object}	error	"Not Found"
//	@Failure		500		{object}	error	"Internal Server Error"
//	@Router			/events/{eventID} [get]
func (app *application) getEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := app.parseIDParam(r, "eventID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := app.store.Events.GetByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, event)
}

// DeleteEvent godoc
//
//	@Summary		Delete an event
//	@Description	Admin-only. Refused while reviews still reference the event.
//	@Tags			Events
//	@Produce		json
//	@Param			eventID	path	int	true	"Event ID"
//	@Success		204
//	@Failure		404	{object}	error	"Not Found"
//	@Failure		412	{object}	error	"Event still has reviews"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		BasicAuth
//	@Router			/events/{eventID} [delete]
func (app *application) deleteEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := app.parseIDParam(r, "eventID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Events.Delete(r.Context(), eventID); err != nil {
		switch {
		case errors.Is(err, store.ErrHasReviews):
			app.preconditionFailedResponse(w, r, errors.New("event still has reviews"))
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
