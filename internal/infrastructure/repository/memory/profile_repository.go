package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/raybet/matchsync/internal/domain/profile"
)

type ProfileRepository struct {
	mu    sync.RWMutex
	byID  map[string]profile.Profile
	order []string
}

func NewProfileRepository(seed []profile.Profile) *ProfileRepository {
	byID := make(map[string]profile.Profile, len(seed))
	order := make([]string, 0, len(seed))
	for _, item := range seed {
		if _, exists := byID[item.ID]; !exists {
			order = append(order, item.ID)
		}
		byID[item.ID] = item
	}
	sort.Strings(order)
	return &ProfileRepository{byID: byID, order: order}
}

func (r *ProfileRepository) List(_ context.Context, limit, offset int) ([]profile.Profile, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]profile.Profile, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, r.byID[id])
	}
	return pageSlice(items, limit, offset), len(items), nil
}

func (r *ProfileRepository) UpdateTotalPoints(_ context.Context, id string, totalPoints int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("profile id=%s not found", id)
	}
	item.TotalPoints = totalPoints
	r.byID[id] = item
	return nil
}

func (r *ProfileRepository) ListTop(_ context.Context, limit int) ([]profile.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]profile.Profile, 0, len(r.byID))
	for _, item := range r.byID {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].TotalPoints != items[j].TotalPoints {
			return items[i].TotalPoints > items[j].TotalPoints
		}
		return items[i].ID < items[j].ID
	})
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}
