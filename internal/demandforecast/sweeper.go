package demandforecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/internal/grid"
	"github.com/richxcame/demand-forecasting/internal/orderhistory"
	"github.com/richxcame/demand-forecasting/pkg/logger"
	"go.uber.org/zap"
)

// ErrGridMismatch is returned when a sweep targets another grid than its order history
var ErrGridMismatch = errors.New("sweep grid does not match order history grid")

// Sweeper forecasts every pixel and bucket of a grid over a range of days,
// one at a time
type Sweeper struct {
	service *Service
	history *orderhistory.OrderHistory
	grids   grid.RepositoryInterface
	methods Methods
}

// NewSweeper creates a sweeper over history's grid
func NewSweeper(service *Service, history *orderhistory.OrderHistory, grids grid.RepositoryInterface, m Methods) *Sweeper {
	return &Sweeper{service: service, history: history, grids: grids, methods: m}
}

// Skippable reports whether err only means that a single forecast cannot be
// made, so a sweep may continue past it
func Skippable(err error) bool {
	return errors.Is(err, orderhistory.ErrLookup) || errors.Is(err, orderhistory.ErrInsufficientHistory)
}

// Run executes a sweep. Missing data skips the affected forecast; any other
// error aborts the sweep and is returned with the report so far.
func (s *Sweeper) Run(ctx context.Context, req SweepRequest) (*SweepReport, error) {
	if req.GridID != s.history.Grid().ID {
		return nil, fmt.Errorf("%w: %s", ErrGridMismatch, req.GridID)
	}
	if req.TrainHorizon < 1 {
		return nil, orderhistory.ErrInvalidHorizon
	}
	if req.Model != "" {
		if _, ok := registry[req.Model]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModel, req.Model)
		}
	}
	from, to := truncateDay(req.From), truncateDay(req.To)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	ctx = logger.ContextWithCorrelationID(ctx, uuid.NewString())
	log := logger.WithContext(ctx)
	start := time.Now()
	defer func() { sweepDuration.Observe(time.Since(start).Seconds()) }()

	pixels, err := s.grids.ListPixels(ctx, req.GridID)
	if err != nil {
		return nil, err
	}

	log.Info("Sweep started",
		zap.String("grid_id", req.GridID.String()),
		zap.String("model", req.Model),
		zap.Int("train_horizon", req.TrainHorizon),
		zap.Int("pixels", len(pixels)),
		zap.String("from", from.Format(time.DateOnly)),
		zap.String("to", to.Format(time.DateOnly)),
	)

	report := &SweepReport{}
	models := make(map[string]*Model)
	var evaluated []*Forecast

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, pixel := range pixels {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			name := req.Model
			if name == "" {
				name, err = ChooseTacticalModel(ctx, s.history, pixel.ID, day, req.TrainHorizon)
				if err != nil {
					if !Skippable(err) {
						return report, err
					}
					n := len(s.buckets(day))
					report.Skipped += n
					forecastsTotal.WithLabelValues("tactical", outcomeSkipped).Add(float64(n))
					log.Debug("Pixel skipped", zap.String("pixel_id", pixel.ID.String()), zap.Error(err))
					continue
				}
			}

			model, ok := models[name]
			if !ok {
				model, err = NewModel(name, s.history, s.methods)
				if err != nil {
					return report, err
				}
				models[name] = model
			}

			for _, at := range s.buckets(day) {
				f, cached, err := s.service.makeForecast(ctx, model, pixel.ID, at, req.TrainHorizon)
				switch {
				case err == nil && cached:
					report.CacheHits++
					forecastsTotal.WithLabelValues(name, outcomeCached).Inc()
				case err == nil:
					report.Computed++
					forecastsTotal.WithLabelValues(name, outcomeComputed).Inc()
				case Skippable(err):
					report.Skipped++
					forecastsTotal.WithLabelValues(name, outcomeSkipped).Inc()
					continue
				default:
					log.Error("Sweep aborted",
						zap.String("pixel_id", pixel.ID.String()),
						zap.Time("predict_at", at),
						zap.String("model", name),
						zap.Error(err),
					)
					return report, err
				}
				evaluated = append(evaluated, f)
			}
		}
	}

	report.Accuracy = EvaluateAccuracy(evaluated)
	log.Info("Sweep finished",
		zap.Int("computed", report.Computed),
		zap.Int("cache_hits", report.CacheHits),
		zap.Int("skipped", report.Skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// buckets returns the start of every operating bucket of day
func (s *Sweeper) buckets(day time.Time) []time.Time {
	cfg := s.history.Config()
	first := day.Add(time.Duration(cfg.OperatingStart) * time.Hour)
	out := make([]time.Time, cfg.BucketsPerDay())
	for i := range out {
		out[i] = first.Add(time.Duration(i) * cfg.TimeStep)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
