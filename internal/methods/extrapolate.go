package methods

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// SeasonalExtrapolation forecasts a seasonal component by fitting a line
// through the observations at each seasonal position and extending it. It
// does not model uncertainty.
type SeasonalExtrapolation struct{}

// Predict implements Method
func (SeasonalExtrapolation) Predict(training []float64, index []time.Time, opts Options) ([]Point, error) {
	if err := validate(training, index, opts); err != nil {
		return nil, err
	}

	m := opts.Frequency
	n := len(training)
	predictions := make([]float64, len(index))
	for h := range index {
		t := n + h
		position := t % m

		var cycles, values []float64
		for i := position; i < n; i += m {
			cycles = append(cycles, float64(i/m))
			values = append(values, training[i])
		}

		switch len(values) {
		case 0:
			predictions[h] = 0
		case 1:
			predictions[h] = values[0]
		default:
			alpha, beta := stat.LinearRegression(cycles, values, nil, false)
			predictions[h] = alpha + beta*float64(t/m)
		}
	}

	return pointsWithoutIntervals(index, predictions), nil
}
