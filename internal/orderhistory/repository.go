package orderhistory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads order placements from PostgreSQL
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new order history repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListImmediateOrders retrieves ad-hoc orders joined to their pickup pixel
func (r *Repository) ListImmediateOrders(ctx context.Context, gridID uuid.UUID, cutoff time.Time) ([]OrderPlacement, error) {
	query := `
		SELECT ap.pixel_id, o.placed_at
		FROM orders o
		JOIN addresses a ON a.id = o.pickup_address_id
		JOIN addresses_pixels ap ON ap.address_id = o.pickup_address_id AND ap.grid_id = $1
		JOIN grids g ON g.id = ap.grid_id AND g.city_id = a.city_id
		WHERE o.ad_hoc = TRUE
		  AND ($2::timestamp IS NULL OR o.placed_at < $2)
		ORDER BY o.placed_at
	`

	var until *time.Time
	if !cutoff.IsZero() {
		until = &cutoff
	}

	rows, err := r.db.Query(ctx, query, gridID, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	placements := make([]OrderPlacement, 0)
	for rows.Next() {
		var p OrderPlacement
		if err := rows.Scan(&p.PixelID, &p.PlacedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		placements = append(placements, p)
	}
	return placements, rows.Err()
}
