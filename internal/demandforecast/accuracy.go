package demandforecast

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// EvaluateAccuracy computes error metrics per model
func EvaluateAccuracy(forecasts []*Forecast) map[string]*ForecastAccuracyMetrics {
	type samples struct{ actuals, predictions []float64 }

	byModel := make(map[string]*samples)
	for _, f := range forecasts {
		s, ok := byModel[f.Model]
		if !ok {
			s = &samples{}
			byModel[f.Model] = s
		}
		s.actuals = append(s.actuals, float64(f.Actual))
		s.predictions = append(s.predictions, f.Prediction)
	}

	names := make([]string, 0, len(byModel))
	for name := range byModel {
		names = append(names, name)
	}
	sort.Strings(names)

	metrics := make(map[string]*ForecastAccuracyMetrics, len(byModel))
	for _, name := range names {
		s := byModel[name]
		n := float64(len(s.actuals))

		mape, nonZero := 0.0, 0
		for i, actual := range s.actuals {
			if actual == 0 {
				continue
			}
			mape += math.Abs(actual-s.predictions[i]) / actual
			nonZero++
		}
		if nonZero > 0 {
			mape = 100 * mape / float64(nonZero)
		}

		metrics[name] = &ForecastAccuracyMetrics{
			Model:            name,
			MAE:              floats.Distance(s.actuals, s.predictions, 1) / n,
			RMSE:             floats.Distance(s.actuals, s.predictions, 2) / math.Sqrt(n),
			MAPE:             mape,
			SamplesEvaluated: len(s.actuals),
		}
	}
	return metrics
}
