package methods

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// smoothingGrid holds the candidate smoothing parameters of the grid search
var smoothingGrid = []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// ETS is additive exponential smoothing without trend. With SeasonalFit and
// at least two full seasons it fits Holt-Winters seasonality, otherwise
// simple exponential smoothing. Smoothing parameters minimise the in-sample
// one-step squared error.
type ETS struct{}

// Predict implements Method
func (ETS) Predict(training []float64, index []time.Time, opts Options) ([]Point, error) {
	if err := validate(training, index, opts); err != nil {
		return nil, err
	}

	m := opts.Frequency
	if !opts.SeasonalFit || len(training) < 2*m {
		m = 1
	}

	best := etsFit{sse: math.Inf(1)}
	for _, alpha := range smoothingGrid {
		gammas := []float64{0}
		if m > 1 {
			gammas = smoothingGrid
		}
		for _, gamma := range gammas {
			if gamma > 1-alpha {
				continue
			}
			fit := fitETS(training, m, alpha, gamma)
			if fit.sse < best.sse {
				best = fit
			}
		}
	}
	if math.IsInf(best.sse, 1) {
		return nil, fmt.Errorf("ets: no admissible parameters for %d observations", len(training))
	}

	sigma := 0.0
	if len(best.residuals) > 1 {
		sigma = stat.StdDev(best.residuals, nil)
	}

	n := len(training)
	predictions := make([]float64, len(index))
	stderr := make([]float64, len(index))
	for h := 1; h <= len(index); h++ {
		predictions[h-1] = best.level + best.seasonal[(n+h-1)%m]
		stderr[h-1] = sigma * math.Sqrt(1+float64(h-1)*best.alpha*best.alpha)
	}

	return pointsWithIntervals(index, predictions, stderr), nil
}

type etsFit struct {
	alpha, gamma float64
	level        float64
	seasonal     []float64
	residuals    []float64
	sse          float64
}

func fitETS(y []float64, m int, alpha, gamma float64) etsFit {
	level := stat.Mean(y[:m], nil)
	seasonal := make([]float64, m)
	if m > 1 {
		for i := 0; i < m; i++ {
			seasonal[i] = y[i] - level
		}
	}

	residuals := make([]float64, 0, len(y))
	sse := 0.0
	for t, obs := range y {
		s := seasonal[t%m]
		e := obs - (level + s)
		residuals = append(residuals, e)
		sse += e * e

		prev := level
		level = alpha*(obs-s) + (1-alpha)*level
		if m > 1 {
			seasonal[t%m] = gamma*(obs-prev) + (1-gamma)*s
		}
	}

	return etsFit{alpha: alpha, gamma: gamma, level: level, seasonal: seasonal, residuals: residuals, sse: sse}
}
