package demandforecast

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Average daily demand thresholds of ChooseTacticalModel
const (
	highDemandThreshold   = 25.0
	mediumDemandThreshold = 10.0
	lowDemandThreshold    = 2.5
)

// ChooseTacticalModel picks a model for a pixel and day from its average
// daily demand over the training window. Busy pixels get models that
// exploit intraday patterns, sparse pixels fall back to simpler ones.
func ChooseTacticalModel(ctx context.Context, history History, pixelID uuid.UUID, predictDay time.Time, trainHorizon int) (string, error) {
	add, err := history.AvgDailyDemand(ctx, pixelID, predictDay, trainHorizon)
	if err != nil {
		return "", err
	}

	switch {
	case add >= highDemandThreshold:
		return ModelRealTimeARIMA, nil
	case add >= mediumDemandThreshold:
		return ModelHorizontalETS, nil
	case add >= lowDemandThreshold:
		return ModelHorizontalSMA, nil
	default:
		return ModelTrivial, nil
	}
}
