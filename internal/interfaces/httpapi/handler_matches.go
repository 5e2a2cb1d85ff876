package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/raybet/matchsync/internal/domain/match"
	"github.com/raybet/matchsync/internal/usecase"
)

const (
	defaultMatchPageSize = 50
	maxMatchPageSize     = 200
)

type matchDTO struct {
	ID            string `json:"id"`
	ExternalID    string `json:"externalId"`
	LeagueID      string `json:"leagueId"`
	HomeTeam      string `json:"homeTeam"`
	AwayTeam      string `json:"awayTeam"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	HomeScore     *int   `json:"homeScore"`
	AwayScore     *int   `json:"awayScore"`
	HomeTeamBadge string `json:"homeTeamBadge,omitempty"`
	AwayTeamBadge string `json:"awayTeamBadge,omitempty"`
	Locked        bool   `json:"locked"`
}

type matchListDTO struct {
	Items []matchDTO `json:"items"`
	Total int        `json:"total"`
}

type listMatchesQuery struct {
	Status string `validate:"omitempty,oneof=scheduled in_progress completed canceled"`
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if err := h.validateRequest(ctx, listMatchesQuery{Status: status}); err != nil {
		writeError(ctx, w, err)
		return
	}

	limit, offset, err := parsePageParams(r, defaultMatchPageSize, maxMatchPageSize)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var items []match.Match
	var total int
	if status == "" {
		items, total, err = h.matches.List(ctx, limit, offset)
	} else {
		items, total, err = h.matches.ListByStatus(ctx, status, limit, offset)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "list matches failed", "status", status, "error", err)
		writeError(ctx, w, err)
		return
	}

	now := time.Now()
	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item, now))
	}

	writeData(ctx, w, http.StatusOK, matchListDTO{Items: out, Total: total})
}

func matchToDTO(item match.Match, now time.Time) matchDTO {
	return matchDTO{
		ID:            item.ID,
		ExternalID:    item.ExternalID,
		LeagueID:      item.LeagueID,
		HomeTeam:      item.HomeTeam,
		AwayTeam:      item.AwayTeam,
		Date:          item.Date,
		Status:        item.Status,
		HomeScore:     item.HomeScore,
		AwayScore:     item.AwayScore,
		HomeTeamBadge: item.HomeTeamBadge,
		AwayTeamBadge: item.AwayTeamBadge,
		Locked:        item.IsLockedAt(now),
	}
}

func parsePageParams(r *http.Request, defaultLimit, maxLimit int) (int, int, error) {
	limit := defaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return 0, 0, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)
		}
		limit = min(parsed, maxLimit)
	}

	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, fmt.Errorf("%w: offset must be a non-negative integer", usecase.ErrInvalidInput)
		}
		offset = parsed
	}

	return limit, offset, nil
}
