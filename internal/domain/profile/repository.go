package profile

import "context"

// Repository exposes profile operations used by the recalculator and the
// leaderboard read surface.
type Repository interface {
	// List pages through all profiles ordered by id and reports the total.
	List(ctx context.Context, limit, offset int) ([]Profile, int, error)
	// UpdateTotalPoints overwrites only the totals column of one profile.
	UpdateTotalPoints(ctx context.Context, id string, totalPoints int) error
	// ListTop returns profiles ordered by total points descending.
	ListTop(ctx context.Context, limit int) ([]Profile, error)
}
