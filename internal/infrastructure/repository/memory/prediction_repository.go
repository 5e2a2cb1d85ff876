package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/raybet/matchsync/internal/domain/prediction"
)

type PredictionRepository struct {
	mu    sync.RWMutex
	items []prediction.Prediction
}

func NewPredictionRepository(seed []prediction.Prediction) *PredictionRepository {
	items := make([]prediction.Prediction, len(seed))
	copy(items, seed)
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
	return &PredictionRepository{items: items}
}

func (r *PredictionRepository) List(_ context.Context, limit, offset int) ([]prediction.Prediction, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return pageSlice(r.items, limit, offset), len(r.items), nil
}
