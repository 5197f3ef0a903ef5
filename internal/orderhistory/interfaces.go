package orderhistory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryInterface defines the interface for order history repository operations
type RepositoryInterface interface {
	// ListImmediateOrders returns the ad-hoc orders picked up inside the grid's
	// city, placed before cutoff unless cutoff is zero
	ListImmediateOrders(ctx context.Context, gridID uuid.UUID, cutoff time.Time) ([]OrderPlacement, error)
}
