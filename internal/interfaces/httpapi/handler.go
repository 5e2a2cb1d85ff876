package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/raybet/matchsync/internal/domain/match"
	"github.com/raybet/matchsync/internal/domain/profile"
	"github.com/raybet/matchsync/internal/platform/cache"
	"github.com/raybet/matchsync/internal/platform/logging"
	"github.com/raybet/matchsync/internal/usecase"
)

// SyncRunner runs one reconcile+recalculate pass.
type SyncRunner interface {
	Run(ctx context.Context, input usecase.SyncInput) (usecase.SyncStats, error)
}

// NextRunScheduler enqueues the follow-up job invocation.
type NextRunScheduler interface {
	ScheduleNext(ctx context.Context) error
}

type Handler struct {
	sync        SyncRunner
	scheduler   NextRunScheduler
	matches     match.Repository
	profiles    profile.Repository
	leaderboard *cache.Store
	logger      *logging.Logger
	validator   *validator.Validate
}

func NewHandler(
	sync SyncRunner,
	scheduler NextRunScheduler,
	matches match.Repository,
	profiles profile.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		sync:        sync,
		scheduler:   scheduler,
		matches:     matches,
		profiles:    profiles,
		leaderboard: cache.NewStore(leaderboardCacheTTL),
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeData(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
