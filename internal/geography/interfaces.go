package geography

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the interface for geography repository operations
type RepositoryInterface interface {
	GetCityByID(ctx context.Context, id uuid.UUID) (*City, error)
	GetCityByName(ctx context.Context, name string) (*City, error)
	ListAddressesByCity(ctx context.Context, cityID uuid.UUID) ([]*Address, error)
}
