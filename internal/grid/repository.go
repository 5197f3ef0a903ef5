package grid

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/demand-forecasting/pkg/database"
)

var (
	// ErrGridNotFound is returned when no grid matches the lookup
	ErrGridNotFound = errors.New("grid not found")
	// ErrGridExists is returned when a grid for the same city and side length already exists
	ErrGridExists = errors.New("grid already exists for city and side length")
)

// Repository handles database operations for grids and pixels
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new grid repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanGrid(row pgx.Row) (*Grid, error) {
	g := &Grid{}
	if err := row.Scan(&g.ID, &g.CityID, &g.SideLength, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGridNotFound
		}
		return nil, fmt.Errorf("failed to get grid: %w", err)
	}
	return g, nil
}

// GetGridByID retrieves a grid by its ID
func (r *Repository) GetGridByID(ctx context.Context, id uuid.UUID) (*Grid, error) {
	query := `SELECT id, city_id, side_length, created_at FROM grids WHERE id = $1`
	return scanGrid(r.db.QueryRow(ctx, query, id))
}

// GetGridByCityAndSideLength retrieves the grid of a city with the given side length
func (r *Repository) GetGridByCityAndSideLength(ctx context.Context, cityID uuid.UUID, sideLength int) (*Grid, error) {
	query := `
		SELECT id, city_id, side_length, created_at
		FROM grids
		WHERE city_id = $1 AND side_length = $2
	`
	return scanGrid(r.db.QueryRow(ctx, query, cityID, sideLength))
}

// ListGridsByCity retrieves every grid of a city, finest first
func (r *Repository) ListGridsByCity(ctx context.Context, cityID uuid.UUID) ([]*Grid, error) {
	query := `
		SELECT id, city_id, side_length, created_at
		FROM grids
		WHERE city_id = $1
		ORDER BY side_length
	`

	rows, err := r.db.Query(ctx, query, cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grids: %w", err)
	}
	defer rows.Close()

	grids := make([]*Grid, 0)
	for rows.Next() {
		g := &Grid{}
		if err := rows.Scan(&g.ID, &g.CityID, &g.SideLength, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grid: %w", err)
		}
		grids = append(grids, g)
	}
	return grids, rows.Err()
}

// CreateGrid persists a grid with its pixels and address assignments in one transaction
func (r *Repository) CreateGrid(ctx context.Context, grid *Grid, pixels []*Pixel, assignments []AddressAssignment) error {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO grids (id, city_id, side_length) VALUES ($1, $2, $3) RETURNING created_at`,
			grid.ID, grid.CityID, grid.SideLength,
		).Scan(&grid.CreatedAt)
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, p := range pixels {
			batch.Queue(
				`INSERT INTO pixels (id, grid_id, n_x, n_y) VALUES ($1, $2, $3, $4)`,
				p.ID, p.GridID, p.NX, p.NY,
			)
		}
		for _, a := range assignments {
			batch.Queue(
				`INSERT INTO addresses_pixels (address_id, grid_id, pixel_id) VALUES ($1, $2, $3)`,
				a.AddressID, grid.ID, a.PixelID,
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		if database.IsUniqueViolation(err) && database.ConstraintName(err) == "uq_grids_on_city_id_side_length" {
			return ErrGridExists
		}
		return fmt.Errorf("failed to create grid: %w", err)
	}
	return nil
}

// ListPixels retrieves every pixel of a grid
func (r *Repository) ListPixels(ctx context.Context, gridID uuid.UUID) ([]*Pixel, error) {
	query := `
		SELECT id, grid_id, n_x, n_y
		FROM pixels
		WHERE grid_id = $1
		ORDER BY n_x, n_y
	`

	rows, err := r.db.Query(ctx, query, gridID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pixels: %w", err)
	}
	defer rows.Close()

	pixels := make([]*Pixel, 0)
	for rows.Next() {
		p := &Pixel{}
		if err := rows.Scan(&p.ID, &p.GridID, &p.NX, &p.NY); err != nil {
			return nil, fmt.Errorf("failed to scan pixel: %w", err)
		}
		pixels = append(pixels, p)
	}
	return pixels, rows.Err()
}
