package grid

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the interface for grid repository operations
type RepositoryInterface interface {
	GetGridByID(ctx context.Context, id uuid.UUID) (*Grid, error)
	GetGridByCityAndSideLength(ctx context.Context, cityID uuid.UUID, sideLength int) (*Grid, error)
	ListGridsByCity(ctx context.Context, cityID uuid.UUID) ([]*Grid, error)
	CreateGrid(ctx context.Context, grid *Grid, pixels []*Pixel, assignments []AddressAssignment) error
	ListPixels(ctx context.Context, gridID uuid.UUID) ([]*Pixel, error)
}
