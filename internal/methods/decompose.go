package methods

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Decomposition splits a series into additive components
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
}

// Adjusted returns the series with the seasonal component removed
func (d *Decomposition) Adjusted(series []float64) []float64 {
	adjusted := make([]float64, len(series))
	floats.SubTo(adjusted, series, d.Seasonal)
	return adjusted
}

// Decompose performs a classical additive decomposition: a centred moving
// average trend, a seasonal profile averaged per position and centred on
// zero, and the residual. The trend is NaN where the moving average window
// does not fit, which also leaves the residual NaN there.
func Decompose(series []float64, frequency int) (*Decomposition, error) {
	if frequency <= 1 {
		return nil, fmt.Errorf("%w: decomposition needs a seasonal period, got %d", ErrInvalidFrequency, frequency)
	}
	if floats.HasNaN(series) {
		return nil, ErrMissingValues
	}
	if len(series) < 2*frequency {
		return nil, fmt.Errorf("%w: %d observations for period %d", ErrSeriesTooShort, len(series), frequency)
	}

	n := len(series)
	trend := centredMovingAverage(series, frequency)

	sums := make([][]float64, frequency)
	for i := 0; i < n; i++ {
		if math.IsNaN(trend[i]) {
			continue
		}
		sums[i%frequency] = append(sums[i%frequency], series[i]-trend[i])
	}
	profile := make([]float64, frequency)
	for p, detrended := range sums {
		if len(detrended) > 0 {
			profile[p] = stat.Mean(detrended, nil)
		}
	}
	floats.AddConst(-stat.Mean(profile, nil), profile)

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = profile[i%frequency]
		residual[i] = series[i] - trend[i] - seasonal[i]
	}

	return &Decomposition{Trend: trend, Seasonal: seasonal, Residual: residual}, nil
}

// centredMovingAverage uses a 2xm window for even m
func centredMovingAverage(series []float64, m int) []float64 {
	n := len(series)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	half := m / 2
	for i := half; i < n-half; i++ {
		if m%2 == 1 {
			out[i] = floats.Sum(series[i-half:i+half+1]) / float64(m)
			continue
		}
		sum := floats.Sum(series[i-half+1:i+half]) + (series[i-half]+series[i+half])/2
		out[i] = sum / float64(m)
	}
	return out
}
