package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/raybet/matchsync/internal/domain/match"
)

// MatchRepository is an in-memory match store for local development and
// tests. It mirrors the postgres ordering so paging behaves the same.
type MatchRepository struct {
	mu      sync.RWMutex
	byExtID map[string]match.Match
}

func NewMatchRepository(seed []match.Match) *MatchRepository {
	byExtID := make(map[string]match.Match, len(seed))
	for _, item := range seed {
		if item.ExternalID == "" {
			continue
		}
		byExtID[item.ExternalID] = item
	}
	return &MatchRepository{byExtID: byExtID}
}

func (r *MatchRepository) GetByExternalID(_ context.Context, externalID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byExtID[externalID]
	return item, ok, nil
}

func (r *MatchRepository) Create(_ context.Context, item match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byExtID[item.ExternalID] = item
	return nil
}

func (r *MatchRepository) Update(_ context.Context, item match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byExtID[item.ExternalID]
	if ok {
		item.ID = existing.ID
	}
	r.byExtID[item.ExternalID] = item
	return nil
}

func (r *MatchRepository) List(ctx context.Context, limit, offset int) ([]match.Match, int, error) {
	return r.list(ctx, "", limit, offset)
}

func (r *MatchRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]match.Match, int, error) {
	return r.list(ctx, status, limit, offset)
}

func (r *MatchRepository) list(_ context.Context, status string, limit, offset int) ([]match.Match, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]match.Match, 0, len(r.byExtID))
	for _, item := range r.byExtID {
		if status != "" && item.Status != status {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return items[i].ID < items[j].ID
	})

	return pageSlice(items, limit, offset), len(items), nil
}

func pageSlice[T any](items []T, limit, offset int) []T {
	if offset >= len(items) || offset < 0 {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
