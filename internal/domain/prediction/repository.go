package prediction

import "context"

// Repository exposes prediction read operations.
type Repository interface {
	// List pages through all predictions ordered by id and reports the total.
	List(ctx context.Context, limit, offset int) ([]Prediction, int, error)
}
