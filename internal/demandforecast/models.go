package demandforecast

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ForecastKey identifies one computed forecast. At most one forecast is
// persisted per key.
type ForecastKey struct {
	PixelID      uuid.UUID `json:"pixel_id"`
	StartAt      time.Time `json:"start_at"`
	TimeStep     int       `json:"time_step"` // minutes
	TrainHorizon int       `json:"train_horizon"`
	Model        string    `json:"model"`
}

// Forecast is a persisted prediction of one pixel's demand in one bucket.
// Interval bounds are nil for models that do not model uncertainty.
type Forecast struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PixelID      uuid.UUID `json:"pixel_id" db:"pixel_id"`
	StartAt      time.Time `json:"start_at" db:"start_at"`
	TimeStep     int       `json:"time_step" db:"time_step"`
	TrainHorizon int       `json:"train_horizon" db:"train_horizon"`
	Model        string    `json:"model" db:"model"`
	Actual       int       `json:"actual" db:"actual"`
	Prediction   float64   `json:"prediction" db:"prediction"`
	Low80        *float64  `json:"low80,omitempty" db:"low80"`
	High80       *float64  `json:"high80,omitempty" db:"high80"`
	Low95        *float64  `json:"low95,omitempty" db:"low95"`
	High95       *float64  `json:"high95,omitempty" db:"high95"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Key returns the forecast's identity
func (f *Forecast) Key() ForecastKey {
	return ForecastKey{
		PixelID:      f.PixelID,
		StartAt:      f.StartAt,
		TimeStep:     f.TimeStep,
		TrainHorizon: f.TrainHorizon,
		Model:        f.Model,
	}
}

// Row is one line of a model's output. Interval bounds are NaN when absent.
type Row struct {
	StartAt    time.Time
	Actual     int
	Prediction float64
	Low80      float64
	High80     float64
	Low95      float64
	High95     float64
}

func (r Row) toForecast(key ForecastKey) *Forecast {
	return &Forecast{
		ID:           uuid.New(),
		PixelID:      key.PixelID,
		StartAt:      r.StartAt,
		TimeStep:     key.TimeStep,
		TrainHorizon: key.TrainHorizon,
		Model:        key.Model,
		Actual:       r.Actual,
		Prediction:   r.Prediction,
		Low80:        optional(r.Low80),
		High80:       optional(r.High80),
		Low95:        optional(r.Low95),
		High95:       optional(r.High95),
	}
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// ForecastCreatedEvent is published for every newly persisted forecast
type ForecastCreatedEvent struct {
	ForecastID   uuid.UUID `json:"forecast_id"`
	PixelID      uuid.UUID `json:"pixel_id"`
	StartAt      time.Time `json:"start_at"`
	TimeStep     int       `json:"time_step"`
	TrainHorizon int       `json:"train_horizon"`
	Model        string    `json:"model"`
	Prediction   float64   `json:"prediction"`
	Actual       int       `json:"actual"`
	CreatedAt    time.Time `json:"created_at"`
}

// MakeForecastRequest asks for the forecast of one pixel and bucket
type MakeForecastRequest struct {
	GridID       uuid.UUID `json:"grid_id" validate:"required"`
	PixelID      uuid.UUID `json:"pixel_id" validate:"required"`
	PredictAt    time.Time `json:"predict_at" validate:"required"`
	TrainHorizon int       `json:"train_horizon" validate:"gte=1"`
	Model        string    `json:"model" validate:"required"`
}

// ForecastAccuracyMetrics summarises forecast errors against actuals
type ForecastAccuracyMetrics struct {
	Model            string  `json:"model"`
	MAE              float64 `json:"mae"`  // Mean Absolute Error
	RMSE             float64 `json:"rmse"` // Root Mean Square Error
	MAPE             float64 `json:"mape"` // Mean Absolute Percentage Error, over non-zero actuals only
	SamplesEvaluated int     `json:"samples_evaluated"`
}

// SweepRequest describes a batch of forecasts over a grid
type SweepRequest struct {
	GridID uuid.UUID
	// Model is a model name, or empty to pick one per pixel and day
	Model        string
	TrainHorizon int
	// From and To are the first and last days to forecast, inclusive
	From time.Time
	To   time.Time
}

// SweepReport summarises a finished sweep
type SweepReport struct {
	Computed  int                                 `json:"computed"`
	CacheHits int                                 `json:"cache_hits"`
	Skipped   int                                 `json:"skipped"`
	Accuracy  map[string]*ForecastAccuracyMetrics `json:"accuracy"`
}
