package methods

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// MovingAverage predicts the mean of the last full season for every step.
// It does not model uncertainty.
type MovingAverage struct{}

// Predict implements Method
func (MovingAverage) Predict(training []float64, index []time.Time, opts Options) ([]Point, error) {
	if err := validate(training, index, opts); err != nil {
		return nil, err
	}

	window := training
	if len(window) > opts.Frequency {
		window = window[len(window)-opts.Frequency:]
	}
	mean := stat.Mean(window, nil)

	predictions := make([]float64, len(index))
	for i := range predictions {
		predictions[i] = mean
	}
	return pointsWithoutIntervals(index, predictions), nil
}
