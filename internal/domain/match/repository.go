package match

import "context"

// Repository exposes match store operations used by the sync job.
type Repository interface {
	// GetByExternalID returns the match and whether it exists.
	GetByExternalID(ctx context.Context, externalID string) (Match, bool, error)
	Create(ctx context.Context, item Match) error
	Update(ctx context.Context, item Match) error
	// List pages through all matches ordered by id and reports the total count.
	List(ctx context.Context, limit, offset int) ([]Match, int, error)
	// ListByStatus pages through matches in one status and reports the total.
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]Match, int, error)
}
