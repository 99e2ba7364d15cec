package main

import (
	"errors"
	"net/http"
	"strconv"
)

// CurationRunResponse reports what a manually triggered sweep changed.
type CurationRunResponse struct {
	BestReviewsUpdated  int `json:"best_reviews_updated"`
	ReviewerStatsSynced int `json:"reviewer_stats_synced"`
}

// RunCuration godoc
//
//	@Summary		Run the curation sweep now
//	@Description	Admin-only. Re-elects best reviews (one event when event_id is given, every scope otherwise) and refreshes reviewer stats.
//	@Tags			Admin
//	@Produce		json
//	@Param			event_id	query		int	false	"Limit the sweep to one event"
//	@Success		200			{object}	CurationRunResponse
//	@Failure		400			{object}	error	"Bad Request"
//	@Failure		500			{object}	error	"Internal Server Error"
//	@Security		BasicAuth
//	@Router			/admin/curation/run [post]
func (app *application) runCurationHandler(w http.ResponseWriter, r *http.Request) {
	var resp CurationRunResponse

	if v := r.URL.Query().Get("event_id"); v != "" {
		eventID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || eventID < 1 {
			app.badRequestResponse(w, r, errors.New("invalid event_id"))
			return
		}
		updated, err := app.curation.RecomputeBestReviews(r.Context(), &eventID)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		resp.BestReviewsUpdated = updated
	} else {
		updated, err := app.curation.RecomputeAllScopes(r.Context())
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		resp.BestReviewsUpdated = updated
	}

	synced, err := app.curation.RecomputeReviewerStats(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	resp.ReviewerStatsSynced = synced

	app.jsonResponse(w, http.StatusOK, resp)
}
