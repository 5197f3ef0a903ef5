// Package methods implements the statistical forecasting methods used by the
// forecasting models. Every method consumes a gap-free training series and
// returns one point per requested forecast timestamp.
package methods

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrMissingValues is returned for training series containing NaN
	ErrMissingValues = errors.New("training series contains missing values")
	// ErrEmptySeries is returned for empty training series
	ErrEmptySeries = errors.New("training series is empty")
	// ErrEmptyIndex is returned when no forecast timestamps are requested
	ErrEmptyIndex = errors.New("forecast index is empty")
	// ErrInvalidFrequency is returned for non-positive frequencies
	ErrInvalidFrequency = errors.New("frequency must be positive")
	// ErrSeriesTooShort is returned when a method needs more observations than given
	ErrSeriesTooShort = errors.New("training series too short")
)

// Two-sided normal quantiles of the prediction intervals
const (
	z80 = 1.2815515655446004
	z95 = 1.959963984540054
)

// Options tune a prediction
type Options struct {
	// Frequency is the seasonal period in observations
	Frequency int
	// SeasonalFit asks the method to model seasonality explicitly
	SeasonalFit bool
}

// Point is one forecast. Interval bounds are NaN when the method does not
// model uncertainty.
type Point struct {
	At         time.Time
	Prediction float64
	Low80      float64
	High80     float64
	Low95      float64
	High95     float64
}

// HasIntervals reports whether the point carries prediction intervals
func (p Point) HasIntervals() bool {
	return !math.IsNaN(p.Low80) && !math.IsNaN(p.Low95)
}

// Method forecasts len(index) steps following training. Output points align
// positionally with index.
type Method interface {
	Predict(training []float64, index []time.Time, opts Options) ([]Point, error)
}

func validate(training []float64, index []time.Time, opts Options) error {
	if len(training) == 0 {
		return ErrEmptySeries
	}
	if floats.HasNaN(training) {
		return ErrMissingValues
	}
	if len(index) == 0 {
		return ErrEmptyIndex
	}
	if opts.Frequency <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrequency, opts.Frequency)
	}
	return nil
}

// pointsWithoutIntervals wraps bare predictions
func pointsWithoutIntervals(index []time.Time, predictions []float64) []Point {
	nan := math.NaN()
	points := make([]Point, len(index))
	for i, at := range index {
		points[i] = Point{At: at, Prediction: predictions[i], Low80: nan, High80: nan, Low95: nan, High95: nan}
	}
	return points
}

// pointsWithIntervals adds normal intervals with the given per-step standard errors
func pointsWithIntervals(index []time.Time, predictions, stderr []float64) []Point {
	points := make([]Point, len(index))
	for i, at := range index {
		p, s := predictions[i], stderr[i]
		points[i] = Point{
			At:         at,
			Prediction: p,
			Low80:      p - z80*s,
			High80:     p + z80*s,
			Low95:      p - z95*s,
			High95:     p + z95*s,
		}
	}
	return points
}
