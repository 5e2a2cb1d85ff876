package jobrun

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event RunEvent) error
}
