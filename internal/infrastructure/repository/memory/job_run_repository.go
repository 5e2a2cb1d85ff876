package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/raybet/matchsync/internal/domain/jobrun"
)

type JobRunRepository struct {
	mu      sync.RWMutex
	byRunID map[string]jobrun.RunEvent
}

func NewJobRunRepository() *JobRunRepository {
	return &JobRunRepository{byRunID: make(map[string]jobrun.RunEvent)}
}

func (r *JobRunRepository) UpsertEvent(_ context.Context, event jobrun.RunEvent) error {
	runID := strings.TrimSpace(event.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byRunID[runID]; ok && len(event.Stats) == 0 {
		event.Stats = existing.Stats
	}
	r.byRunID[runID] = event
	return nil
}

// Events returns a snapshot of the recorded runs for inspection in tests and
// the health surface.
func (r *JobRunRepository) Events() []jobrun.RunEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobrun.RunEvent, 0, len(r.byRunID))
	for _, event := range r.byRunID {
		out = append(out, event)
	}
	return out
}
