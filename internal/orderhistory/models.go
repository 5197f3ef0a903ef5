package orderhistory

import (
	"time"

	"github.com/google/uuid"
)

// OrderPlacement is one immediate order, already mapped to its pickup pixel
type OrderPlacement struct {
	PixelID  uuid.UUID `json:"pixel_id" db:"pixel_id"`
	PlacedAt time.Time `json:"placed_at" db:"placed_at"`
}

// Series is a time-indexed sequence of order counts
type Series struct {
	Index  []time.Time `json:"index"`
	Values []float64   `json:"values"`
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s.Values)
}

// TimeSeries is the input of a forecasting method: a training series, its
// seasonal period, and the ground truth to be predicted
type TimeSeries struct {
	Training  Series `json:"training"`
	Actuals   Series `json:"actuals"`
	Frequency int    `json:"frequency"`
}

// Config controls how order placements are bucketed
type Config struct {
	TimeStep time.Duration
	// Operating hours, [OperatingStart, OperatingEnd) in hours of the day
	OperatingStart int
	OperatingEnd   int
	// Orders placed at or after Cutoff are ignored. Zero disables the cutoff.
	Cutoff time.Time
}

// BucketsPerDay is the number of buckets within operating hours
func (c Config) BucketsPerDay() int {
	if c.TimeStep <= 0 {
		return 0
	}
	return int(c.operatingWindow() / c.TimeStep)
}

func (c Config) operatingWindow() time.Duration {
	return time.Duration(c.OperatingEnd-c.OperatingStart) * time.Hour
}

func (c Config) validate() error {
	if c.OperatingStart < 0 || c.OperatingEnd > 24 || c.OperatingStart >= c.OperatingEnd {
		return ErrInvalidOperatingHours
	}
	if c.TimeStep <= 0 || c.TimeStep%time.Minute != 0 || c.operatingWindow()%c.TimeStep != 0 {
		return ErrInvalidTimeStep
	}
	return nil
}
