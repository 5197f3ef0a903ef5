package geography

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCityNotFound is returned when no city matches the lookup
var ErrCityNotFound = errors.New("city not found")

const cityColumns = `
	id, name, northeast_latitude, northeast_longitude,
	southwest_latitude, southwest_longitude, created_at`

// Repository handles database operations for geography
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new geography repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanCity(row pgx.Row) (*City, error) {
	c := &City{}
	err := row.Scan(
		&c.ID, &c.Name, &c.NortheastLatitude, &c.NortheastLongitude,
		&c.SouthwestLatitude, &c.SouthwestLongitude, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	return c, nil
}

// GetCityByID retrieves a city by its ID
func (r *Repository) GetCityByID(ctx context.Context, id uuid.UUID) (*City, error) {
	query := `SELECT` + cityColumns + ` FROM cities WHERE id = $1`
	return scanCity(r.db.QueryRow(ctx, query, id))
}

// GetCityByName retrieves a city by its unique name
func (r *Repository) GetCityByName(ctx context.Context, name string) (*City, error) {
	query := `SELECT` + cityColumns + ` FROM cities WHERE name = $1`
	return scanCity(r.db.QueryRow(ctx, query, name))
}

// ListAddressesByCity retrieves every address of a city ordered by ID
func (r *Repository) ListAddressesByCity(ctx context.Context, cityID uuid.UUID) ([]*Address, error) {
	query := `
		SELECT id, city_id, street, zip_code, latitude, longitude
		FROM addresses
		WHERE city_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]*Address, 0)
	for rows.Next() {
		a := &Address{}
		if err := rows.Scan(&a.ID, &a.CityID, &a.Street, &a.ZipCode, &a.Latitude, &a.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate addresses: %w", err)
	}

	return addresses, nil
}
