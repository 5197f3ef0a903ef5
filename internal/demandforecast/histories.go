package demandforecast

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/internal/grid"
	"github.com/richxcame/demand-forecasting/internal/orderhistory"
)

// Histories hands out one order history per grid, created on first use and
// kept for the life of the process
type Histories struct {
	grids  grid.RepositoryInterface
	orders orderhistory.RepositoryInterface
	cfg    orderhistory.Config

	mu     sync.Mutex
	byGrid map[uuid.UUID]*orderhistory.OrderHistory
}

// NewHistories creates an order history registry
func NewHistories(grids grid.RepositoryInterface, orders orderhistory.RepositoryInterface, cfg orderhistory.Config) *Histories {
	return &Histories{
		grids:  grids,
		orders: orders,
		cfg:    cfg,
		byGrid: make(map[uuid.UUID]*orderhistory.OrderHistory),
	}
}

// Get returns the order history of a grid
func (h *Histories) Get(ctx context.Context, gridID uuid.UUID) (*orderhistory.OrderHistory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if history, ok := h.byGrid[gridID]; ok {
		return history, nil
	}

	g, err := h.grids.GetGridByID(ctx, gridID)
	if err != nil {
		return nil, err
	}
	history, err := orderhistory.New(h.orders, g, h.cfg)
	if err != nil {
		return nil, err
	}
	h.byGrid[gridID] = history
	return history, nil
}
