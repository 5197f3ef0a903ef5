package demandforecast

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/internal/orderhistory"
)

// RepositoryInterface defines the interface for forecast repository operations
type RepositoryInterface interface {
	GetForecast(ctx context.Context, key ForecastKey) (*Forecast, error)
	// CreateForecasts persists every forecast in one transaction
	CreateForecasts(ctx context.Context, forecasts []*Forecast) error
	ListForecasts(ctx context.Context, pixelID uuid.UUID, from, to time.Time) ([]*Forecast, error)
}

// History is the order history a model slices its training data from
type History interface {
	TimeStep() time.Duration
	HorizontalTimeSeries(ctx context.Context, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*orderhistory.TimeSeries, error)
	VerticalTimeSeries(ctx context.Context, pixelID uuid.UUID, predictDay time.Time, trainHorizon int) (*orderhistory.TimeSeries, error)
	RealTimeTimeSeries(ctx context.Context, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*orderhistory.TimeSeries, error)
	AvgDailyDemand(ctx context.Context, pixelID uuid.UUID, predictDay time.Time, trainHorizon int) (float64, error)
}
