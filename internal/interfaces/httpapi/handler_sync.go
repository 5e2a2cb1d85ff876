package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/raybet/matchsync/internal/usecase"
)

type matchSyncRequest struct {
	DryRun bool `json:"dryRun"`
}

// RunMatchSyncJob triggers one reconcile+recalculate pass. The request body
// is optional; QStash publishes an empty JSON object.
func (h *Handler) RunMatchSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunMatchSyncJob")
	defer span.End()

	req, err := decodeMatchSyncRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	stats, err := h.sync.Run(ctx, usecase.SyncInput{DryRun: req.DryRun})
	if err != nil {
		h.logger.ErrorContext(ctx, "match sync job failed", "dry_run", req.DryRun, "error", err)
		writeError(ctx, w, err)
		return
	}

	// The run's results stand even when the follow-up cannot be enqueued;
	// QStash retries and manual triggers cover the gap.
	if h.scheduler != nil && !req.DryRun {
		if err := h.scheduler.ScheduleNext(ctx); err != nil {
			h.logger.WarnContext(ctx, "schedule next sync run failed", "error", err)
		}
	}

	writeStats(ctx, w, stats)
}

func decodeMatchSyncRequest(r *http.Request) (matchSyncRequest, error) {
	var req matchSyncRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return matchSyncRequest{}, nil
		}
		return matchSyncRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return req, nil
}
