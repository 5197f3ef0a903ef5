package demandforecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/demand-forecasting/pkg/database"
)

var (
	// ErrForecastNotFound is returned when no forecast matches the key
	ErrForecastNotFound = errors.New("forecast not found")
	// ErrIntegrity is the kind of every constraint violation raised by the store
	ErrIntegrity = errors.New("forecast violates a store constraint")
	// ErrDuplicateForecast is returned when a forecast with the same key already exists
	ErrDuplicateForecast = fmt.Errorf("%w: duplicate forecast key", ErrIntegrity)
)

const forecastColumns = `id, pixel_id, start_at, time_step, train_horizon, model,
	actual, prediction, low80, high80, low95, high95, created_at`

// Repository handles database operations for forecasts
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new forecast repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanForecast(row pgx.Row) (*Forecast, error) {
	f := &Forecast{}
	err := row.Scan(
		&f.ID, &f.PixelID, &f.StartAt, &f.TimeStep, &f.TrainHorizon, &f.Model,
		&f.Actual, &f.Prediction, &f.Low80, &f.High80, &f.Low95, &f.High95, &f.CreatedAt,
	)
	return f, err
}

// GetForecast retrieves the forecast stored under key
func (r *Repository) GetForecast(ctx context.Context, key ForecastKey) (*Forecast, error) {
	query := `
		SELECT ` + forecastColumns + `
		FROM forecasts
		WHERE pixel_id = $1 AND start_at = $2 AND time_step = $3
		  AND train_horizon = $4 AND model = $5
	`

	f, err := scanForecast(r.db.QueryRow(ctx, query,
		key.PixelID, key.StartAt, key.TimeStep, key.TrainHorizon, key.Model,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForecastNotFound
		}
		return nil, fmt.Errorf("failed to get forecast: %w", err)
	}
	return f, nil
}

// CreateForecasts inserts all forecasts in one transaction. Constraint
// violations are reported as ErrIntegrity and nothing is written.
func (r *Repository) CreateForecasts(ctx context.Context, forecasts []*Forecast) error {
	if len(forecasts) == 0 {
		return nil
	}

	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, f := range forecasts {
			batch.Queue(`
				INSERT INTO forecasts (id, pixel_id, start_at, time_step, train_horizon, model,
					actual, prediction, low80, high80, low95, high95)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				RETURNING created_at`,
				f.ID, f.PixelID, f.StartAt, f.TimeStep, f.TrainHorizon, f.Model,
				f.Actual, f.Prediction, f.Low80, f.High80, f.Low95, f.High95,
			).QueryRow(func(row pgx.Row) error {
				return row.Scan(&f.CreatedAt)
			})
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return fmt.Errorf("%w: %s", ErrDuplicateForecast, database.ConstraintName(err))
		case database.IsCheckViolation(err):
			return fmt.Errorf("%w: %s", ErrIntegrity, database.ConstraintName(err))
		}
		return fmt.Errorf("failed to create forecasts: %w", err)
	}
	return nil
}

// ListForecasts retrieves a pixel's forecasts starting within [from, to)
func (r *Repository) ListForecasts(ctx context.Context, pixelID uuid.UUID, from, to time.Time) ([]*Forecast, error) {
	query := `
		SELECT ` + forecastColumns + `
		FROM forecasts
		WHERE pixel_id = $1 AND start_at >= $2 AND start_at < $3
		ORDER BY start_at, model, train_horizon
	`

	rows, err := r.db.Query(ctx, query, pixelID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}
	defer rows.Close()

	forecasts := make([]*Forecast, 0)
	for rows.Next() {
		f, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		forecasts = append(forecasts, f)
	}
	return forecasts, rows.Err()
}
