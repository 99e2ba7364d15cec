package main

import (
	"context"
	"time"
)

// runCurationSweepEvery keeps the best-review flags and reviewer stats fresh.
// The sweep runs once at startup and then on every tick for the life of the
// process.
func (app *application) runCurationSweepEvery(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		app.runCurationSweep()
		for range ticker.C {
			app.runCurationSweep()
		}
	}()
}

func (app *application) runCurationSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	updated, err := app.curation.RecomputeAllScopes(ctx)
	if err != nil {
		app.logger.Errorw("best-review sweep failed", "error", err)
	} else if updated > 0 {
		app.logger.Infow("best-review sweep done", "updated", updated)
	}

	synced, err := app.curation.RecomputeReviewerStats(ctx)
	if err != nil {
		app.logger.Errorw("reviewer stats sweep failed", "error", err)
	} else if synced > 0 {
		app.logger.Infow("reviewer stats sweep done", "synced", synced)
	}
}
