package demandforecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/pkg/eventbus"
	"github.com/richxcame/demand-forecasting/pkg/logger"
	"go.uber.org/zap"
)

// SubjectForecastCreated is the default subject of ForecastCreatedEvent
const SubjectForecastCreated = "forecast.created"

var (
	// ErrContractViolation is returned when a model's output lacks the requested
	// bucket. It indicates a broken model and is never retried.
	ErrContractViolation = errors.New("model output does not contain the prediction anchor")
	// ErrInvalidRange is returned for empty time ranges
	ErrInvalidRange = errors.New("time range is empty")
)

// Service computes and caches forecasts
type Service struct {
	repo      RepositoryInterface
	publisher eventbus.Publisher
	subject   string
}

// NewService creates a new forecast service. A nil publisher drops events.
func NewService(repo RepositoryInterface, publisher eventbus.Publisher, subject string) *Service {
	if publisher == nil {
		publisher = eventbus.NopPublisher{}
	}
	if subject == "" {
		subject = SubjectForecastCreated
	}
	return &Service{repo: repo, publisher: publisher, subject: subject}
}

// MakeForecast returns the forecast of model for pixelID at predictAt,
// computing and persisting it only when none is stored yet. Every row the
// model returns is persisted in one transaction.
func (s *Service) MakeForecast(ctx context.Context, model *Model, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*Forecast, error) {
	f, _, err := s.makeForecast(ctx, model, pixelID, predictAt, trainHorizon)
	return f, err
}

// makeForecast also reports whether the forecast came from the store
func (s *Service) makeForecast(ctx context.Context, model *Model, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*Forecast, bool, error) {
	key := ForecastKey{
		PixelID:      pixelID,
		StartAt:      predictAt,
		TimeStep:     int(model.History().TimeStep() / time.Minute),
		TrainHorizon: trainHorizon,
		Model:        model.Name(),
	}

	existing, err := s.repo.GetForecast(ctx, key)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, ErrForecastNotFound) {
		return nil, false, err
	}

	rows, err := model.Predict(ctx, pixelID, predictAt, trainHorizon)
	if err != nil {
		return nil, false, err
	}

	var anchor *Forecast
	forecasts := make([]*Forecast, 0, len(rows))
	for _, row := range rows {
		f := row.toForecast(key)
		if row.StartAt.Equal(predictAt) {
			anchor = f
		}
		forecasts = append(forecasts, f)
	}
	if anchor == nil {
		return nil, false, fmt.Errorf("%w: model %s at %s", ErrContractViolation, model.Name(), predictAt.Format(time.DateTime))
	}

	if err := s.repo.CreateForecasts(ctx, forecasts); err != nil {
		return nil, false, err
	}

	logger.WithContext(ctx).Debug("Forecasts created",
		zap.String("pixel_id", pixelID.String()),
		zap.Time("predict_at", predictAt),
		zap.String("model", model.Name()),
		zap.Int("rows", len(forecasts)),
	)
	s.publish(ctx, forecasts)

	return anchor, false, nil
}

// ListForecasts returns a pixel's forecasts starting within [from, to)
func (s *Service) ListForecasts(ctx context.Context, pixelID uuid.UUID, from, to time.Time) ([]*Forecast, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, from.Format(time.DateTime), to.Format(time.DateTime))
	}
	return s.repo.ListForecasts(ctx, pixelID, from, to)
}

// publish is best effort; the forecasts are already committed
func (s *Service) publish(ctx context.Context, forecasts []*Forecast) {
	for _, f := range forecasts {
		event := ForecastCreatedEvent{
			ForecastID:   f.ID,
			PixelID:      f.PixelID,
			StartAt:      f.StartAt,
			TimeStep:     f.TimeStep,
			TrainHorizon: f.TrainHorizon,
			Model:        f.Model,
			Prediction:   f.Prediction,
			Actual:       f.Actual,
			CreatedAt:    f.CreatedAt,
		}
		if err := s.publisher.Publish(ctx, s.subject, event); err != nil {
			logger.WithContext(ctx).Warn("Failed to publish forecast event",
				zap.String("forecast_id", f.ID.String()),
				zap.Error(err),
			)
		}
	}
}
