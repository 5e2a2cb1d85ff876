package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raybet/matchsync/internal/domain/profile"
	"github.com/raybet/matchsync/internal/usecase"
)

const (
	defaultLeaderboardSize = 20
	maxLeaderboardSize     = 100

	// Totals only move when a sync run rewrites them, so a short TTL keeps
	// the board fresh while absorbing request bursts.
	leaderboardCacheTTL = 30 * time.Second
)

type leaderboardEntryDTO struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	Nickname    string `json:"nickname"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	TotalPoints int    `json:"totalPoints"`
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	limit := defaultLeaderboardSize
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		limit = min(parsed, maxLeaderboardSize)
	}

	key := fmt.Sprintf("leaderboard:%d", limit)
	entries, err := h.leaderboard.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		top, err := h.profiles.ListTop(ctx, limit)
		if err != nil {
			return nil, err
		}
		return leaderboardToDTO(top), nil
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "list leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeData(ctx, w, http.StatusOK, entries)
}

// leaderboardToDTO ranks ties by shared position: equal totals share a rank
// and the next distinct total skips past them.
func leaderboardToDTO(items []profile.Profile) []leaderboardEntryDTO {
	out := make([]leaderboardEntryDTO, 0, len(items))
	rank := 0
	lastPoints := 0
	for idx, item := range items {
		if idx == 0 || item.TotalPoints != lastPoints {
			rank = idx + 1
			lastPoints = item.TotalPoints
		}
		out = append(out, leaderboardEntryDTO{
			Rank:        rank,
			UserID:      item.UserID,
			Nickname:    item.Nickname,
			AvatarURL:   item.AvatarURL,
			TotalPoints: item.TotalPoints,
		})
	}
	return out
}
