package demandforecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAccuracy(t *testing.T) {
	forecasts := []*Forecast{
		{Model: ModelHorizontalETS, Actual: 2, Prediction: 1},
		{Model: ModelHorizontalETS, Actual: 4, Prediction: 7},
		{Model: ModelHorizontalETS, Actual: 0, Prediction: 1},
		{Model: ModelTrivial, Actual: 3, Prediction: 0},
	}

	metrics := EvaluateAccuracy(forecasts)

	require.Len(t, metrics, 2)

	hets := metrics[ModelHorizontalETS]
	assert.Equal(t, 3, hets.SamplesEvaluated)
	assert.InDelta(t, (1.0+3.0+1.0)/3, hets.MAE, 1e-9)
	assert.InDelta(t, math.Sqrt((1.0+9.0+1.0)/3), hets.RMSE, 1e-9)
	// Zero actuals are left out of MAPE.
	assert.InDelta(t, 100*(0.5+0.75)/2, hets.MAPE, 1e-9)

	trivial := metrics[ModelTrivial]
	assert.Equal(t, 1, trivial.SamplesEvaluated)
	assert.InDelta(t, 3.0, trivial.MAE, 1e-9)
	assert.InDelta(t, 100.0, trivial.MAPE, 1e-9)
}

func TestEvaluateAccuracy_Empty(t *testing.T) {
	assert.Empty(t, EvaluateAccuracy(nil))
}
