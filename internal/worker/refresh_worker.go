package worker

// refresh_worker.go
// Processes insights refresh jobs from QueueInsightsRefresh, enqueued after
// every committed stock adjustment.

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InsightsRefresher drops the cached insights of a business and computes them
// again with the default thresholds.
type InsightsRefresher interface {
	Refresh(ctx context.Context, businessID uuid.UUID) error
}

// RefreshHandler adapts an InsightsRefresher to a pool Handler.
func RefreshHandler(r InsightsRefresher) Handler {
	return func(ctx context.Context, raw json.RawMessage) error {
		var payload BusinessPayload
		if err := json.Unmarshal(raw, &payload); err != nil || payload.BusinessID == uuid.Nil {
			// retrying a malformed payload cannot help
			log.Error().Err(err).RawJSON("payload", raw).Msg("refresh_worker: invalid payload")
			return nil
		}
		if err := r.Refresh(ctx, payload.BusinessID); err != nil {
			return err
		}
		log.Debug().Str("business_id", payload.BusinessID.String()).Msg("refresh_worker: insights refreshed")
		return nil
	}
}
