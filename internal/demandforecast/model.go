package demandforecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/internal/methods"
	"github.com/richxcame/demand-forecasting/internal/orderhistory"
)

// Model names are part of every forecast's key. Renaming one orphans all
// forecasts cached under the old name.
const (
	ModelHorizontalETS = "hets"
	ModelHorizontalSMA = "hsma"
	ModelRealTimeARIMA = "rtarima"
	ModelVerticalARIMA = "varima"
	ModelTrivial       = "trivial"
)

// ErrUnknownModel is returned for names outside the registry
var ErrUnknownModel = errors.New("unknown forecasting model")

// Methods are the statistical methods models delegate to
type Methods struct {
	ETS           methods.Method
	ARIMA         methods.Method
	Extrapolation methods.Method
	Average       methods.Method
}

// DefaultMethods returns the built-in method implementations
func DefaultMethods() Methods {
	return Methods{
		ETS:           methods.ETS{},
		ARIMA:         methods.ARIMA{},
		Extrapolation: methods.SeasonalExtrapolation{},
		Average:       methods.MovingAverage{},
	}
}

type slicer func(ctx context.Context, h History, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*orderhistory.TimeSeries, error)

type predictor func(ts *orderhistory.TimeSeries, m Methods) ([]methods.Point, error)

type variant struct {
	slice   slicer
	predict predictor
	// minHorizon is the shortest training horizon, in weeks, the predictor can fit
	minHorizon int
}

var registry = map[string]variant{
	ModelHorizontalETS: {slice: horizontal, predict: predictETS, minHorizon: 1},
	ModelHorizontalSMA: {slice: horizontal, predict: predictAverage, minHorizon: 1},
	// Decomposition needs at least two seasonal periods.
	ModelRealTimeARIMA: {slice: realTime, predict: predictDecomposedARIMA, minHorizon: 2},
	ModelVerticalARIMA: {slice: vertical, predict: predictDecomposedARIMA, minHorizon: 2},
	ModelTrivial:       {slice: horizontal, predict: predictZero, minHorizon: 1},
}

// ModelNames lists the registered model names
func ModelNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model binds a registered forecasting variant to an order history
type Model struct {
	name    string
	variant variant
	history History
	methods Methods
}

// NewModel looks name up in the registry
func NewModel(name string, history History, m Methods) (*Model, error) {
	v, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return &Model{name: name, variant: v, history: history, methods: m}, nil
}

// Name is the model's cache-key identity
func (m *Model) Name() string {
	return m.name
}

// History returns the order history the model slices
func (m *Model) History() History {
	return m.history
}

// Predict forecasts the buckets covered by the model's actuals series. The
// result always includes predictAt for a correct model; vertical models
// return the whole day.
func (m *Model) Predict(ctx context.Context, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) ([]Row, error) {
	if trainHorizon >= 1 && trainHorizon < m.variant.minHorizon {
		return nil, fmt.Errorf("%w: %s needs at least %d weeks, got %d",
			orderhistory.ErrInsufficientHistory, m.name, m.variant.minHorizon, trainHorizon)
	}

	ts, err := m.variant.slice(ctx, m.history, pixelID, predictAt, trainHorizon)
	if err != nil {
		return nil, err
	}

	points, err := m.variant.predict(ts, m.methods)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}
	if len(points) != ts.Actuals.Len() {
		return nil, fmt.Errorf("%s: %d predictions for %d actuals", m.name, len(points), ts.Actuals.Len())
	}

	rows := make([]Row, len(points))
	for i, p := range points {
		rows[i] = Row{
			StartAt:    ts.Actuals.Index[i],
			Actual:     int(ts.Actuals.Values[i]),
			Prediction: p.Prediction,
			Low80:      p.Low80,
			High80:     p.High80,
			Low95:      p.Low95,
			High95:     p.High95,
		}
	}
	return rows, nil
}

func horizontal(ctx context.Context, h History, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*orderhistory.TimeSeries, error) {
	return h.HorizontalTimeSeries(ctx, pixelID, predictAt, trainHorizon)
}

// vertical slices predictAt's whole day, which must contain predictAt as a bucket
func vertical(ctx context.Context, h History, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*orderhistory.TimeSeries, error) {
	ts, err := h.VerticalTimeSeries(ctx, pixelID, predictAt, trainHorizon)
	if err != nil {
		return nil, err
	}
	for _, at := range ts.Actuals.Index {
		if at.Equal(predictAt) {
			return ts, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", orderhistory.ErrAnchorNotFound, predictAt.Format(time.DateTime))
}

func realTime(ctx context.Context, h History, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*orderhistory.TimeSeries, error) {
	return h.RealTimeTimeSeries(ctx, pixelID, predictAt, trainHorizon)
}

func predictETS(ts *orderhistory.TimeSeries, m Methods) ([]methods.Point, error) {
	return m.ETS.Predict(ts.Training.Values, ts.Actuals.Index, methods.Options{Frequency: ts.Frequency, SeasonalFit: true})
}

func predictAverage(ts *orderhistory.TimeSeries, m Methods) ([]methods.Point, error) {
	return m.Average.Predict(ts.Training.Values, ts.Actuals.Index, methods.Options{Frequency: ts.Frequency})
}

// predictDecomposedARIMA fits ARIMA to the seasonally adjusted series and
// adds the extrapolated seasonal component back
func predictDecomposedARIMA(ts *orderhistory.TimeSeries, m Methods) ([]methods.Point, error) {
	decomposition, err := methods.Decompose(ts.Training.Values, ts.Frequency)
	if err != nil {
		return nil, err
	}
	opts := methods.Options{Frequency: ts.Frequency}

	season, err := m.Extrapolation.Predict(decomposition.Seasonal, ts.Actuals.Index, opts)
	if err != nil {
		return nil, err
	}
	adjusted, err := m.ARIMA.Predict(decomposition.Adjusted(ts.Training.Values), ts.Actuals.Index, opts)
	if err != nil {
		return nil, err
	}
	if len(season) != len(adjusted) {
		return nil, fmt.Errorf("season and arima disagree on %d vs %d steps", len(season), len(adjusted))
	}

	points := make([]methods.Point, len(adjusted))
	for i, p := range adjusted {
		s := season[i].Prediction
		points[i] = methods.Point{
			At:         p.At,
			Prediction: p.Prediction + s,
			Low80:      p.Low80 + s,
			High80:     p.High80 + s,
			Low95:      p.Low95 + s,
			High95:     p.High95 + s,
		}
	}
	return points, nil
}

func predictZero(ts *orderhistory.TimeSeries, _ Methods) ([]methods.Point, error) {
	nan := math.NaN()
	points := make([]methods.Point, ts.Actuals.Len())
	for i, at := range ts.Actuals.Index {
		points[i] = methods.Point{At: at, Prediction: 0, Low80: nan, High80: nan, Low95: nan, High95: nan}
	}
	return points, nil
}
