package demandforecast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Forecast outcomes
const (
	outcomeComputed = "computed"
	outcomeCached   = "cached"
	outcomeSkipped  = "skipped"
)

var (
	forecastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forecasting",
			Name:      "forecasts_total",
			Help:      "Forecasts handled by sweeps, by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "forecasting",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of forecasting sweeps in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)
