package methods

import (
	"fmt"
	"math"
	"time"

	"github.com/sartorproj/goarima/arima"
	"github.com/sartorproj/goarima/sarima"
	"github.com/sartorproj/goarima/timeseries"
	"gonum.org/v1/gonum/stat"
)

// ARIMA fits ARIMA(1,0,1), or SARIMA(0,1,1)(0,1,1) over the frequency when
// SeasonalFit is set. Intervals use the standard deviation of the
// first-differenced training series, widening with the square root of the
// horizon.
type ARIMA struct{}

// Predict implements Method
func (ARIMA) Predict(training []float64, index []time.Time, opts Options) ([]Point, error) {
	if err := validate(training, index, opts); err != nil {
		return nil, err
	}

	series := &timeseries.Series{Values: append([]float64(nil), training...)}
	steps := len(index)

	var (
		predictions []float64
		err         error
	)
	if opts.SeasonalFit && opts.Frequency > 1 {
		if len(training) < 2*opts.Frequency+2 {
			return nil, fmt.Errorf("%w: %d observations for seasonal period %d", ErrSeriesTooShort, len(training), opts.Frequency)
		}
		model := sarima.New(0, 1, 1, 0, 1, 1, opts.Frequency)
		if err = model.Fit(series); err != nil {
			return nil, fmt.Errorf("sarima fit: %w", err)
		}
		predictions, err = model.Predict(steps)
	} else {
		if len(training) < 3 {
			return nil, fmt.Errorf("%w: %d observations", ErrSeriesTooShort, len(training))
		}
		model := arima.New(1, 0, 1)
		if err = model.Fit(series); err != nil {
			return nil, fmt.Errorf("arima fit: %w", err)
		}
		predictions, err = model.Predict(steps)
	}
	if err != nil {
		return nil, fmt.Errorf("arima predict: %w", err)
	}
	if len(predictions) != steps {
		return nil, fmt.Errorf("arima returned %d predictions for %d steps", len(predictions), steps)
	}

	sigma := differencedStdDev(training)
	stderr := make([]float64, steps)
	for h := range stderr {
		stderr[h] = sigma * math.Sqrt(float64(h+1))
	}

	return pointsWithIntervals(index, predictions, stderr), nil
}

func differencedStdDev(series []float64) float64 {
	if len(series) < 3 {
		return 0
	}
	diffs := make([]float64, len(series)-1)
	for i := 1; i < len(series); i++ {
		diffs[i-1] = series[i] - series[i-1]
	}
	return stat.StdDev(diffs, nil)
}
