package orderhistory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/demand-forecasting/internal/grid"
	"github.com/richxcame/demand-forecasting/pkg/logger"
	"go.uber.org/zap"
)

var (
	// ErrLookup is the kind of every "not found" error of this package
	ErrLookup = errors.New("order history lookup failed")
	// ErrPixelNotFound is returned for pixels without any order in the table
	ErrPixelNotFound = fmt.Errorf("%w: pixel not in order history", ErrLookup)
	// ErrAnchorNotFound is returned when the prediction anchor has no bucket in the table
	ErrAnchorNotFound = fmt.Errorf("%w: no bucket for prediction anchor", ErrLookup)
	// ErrInsufficientHistory is returned when the training window starts before the first observed day
	ErrInsufficientHistory = errors.New("not enough historic data for training horizon")
	// ErrInvalidTimeStep is returned when the time step does not evenly divide operating hours
	ErrInvalidTimeStep = errors.New("time step must be a whole number of minutes evenly dividing operating hours")
	// ErrInvalidOperatingHours is returned for an empty or out of range operating window
	ErrInvalidOperatingHours = errors.New("operating hours must satisfy 0 <= start < end <= 24")
	// ErrInvalidHorizon is returned for training horizons below one week
	ErrInvalidHorizon = errors.New("training horizon must be at least one week")
)

// daysPerWeek is the seasonal period of a daily series
const daysPerWeek = 7

// OrderHistory aggregates one grid's orders into bucketed counts and slices
// them into training series
type OrderHistory struct {
	repo RepositoryInterface
	grid *grid.Grid
	cfg  Config

	mu     sync.Mutex
	totals *Totals
}

// New creates an order history over grid. The totals table is loaded on first use.
func New(repo RepositoryInterface, g *grid.Grid, cfg Config) (*OrderHistory, error) {
	if g == nil {
		return nil, errors.New("order history requires a grid")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &OrderHistory{repo: repo, grid: g, cfg: cfg}, nil
}

// Grid returns the grid the history is scoped to
func (h *OrderHistory) Grid() *grid.Grid {
	return h.grid
}

// TimeStep returns the bucket length
func (h *OrderHistory) TimeStep() time.Duration {
	return h.cfg.TimeStep
}

// Config returns the bucketing configuration
func (h *OrderHistory) Config() Config {
	return h.cfg
}

// Totals returns the densified count table, aggregating it on the first call.
// A failed load is not cached.
func (h *OrderHistory) Totals(ctx context.Context) (*Totals, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totals != nil {
		return h.totals, nil
	}

	placements, err := h.repo.ListImmediateOrders(ctx, h.grid.ID, h.cfg.Cutoff)
	if err != nil {
		return nil, err
	}

	h.totals = buildTotals(placements, h.cfg)
	logger.WithContext(ctx).Info("Order history aggregated",
		zap.String("grid_id", h.grid.ID.String()),
		zap.Duration("time_step", h.cfg.TimeStep),
		zap.Int("orders", len(placements)),
		zap.Int("pixels", len(h.totals.pixels)),
		zap.Int("days", h.totals.days),
		zap.Int("rows", h.totals.Len()),
	)

	return h.totals, nil
}

// HorizontalTimeSeries slices the buckets at predictAt's time of day on each
// of the 7*trainHorizon preceding days. Frequency is 7.
func (h *OrderHistory) HorizontalTimeSeries(ctx context.Context, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*TimeSeries, error) {
	t, row, anchor, err := h.locate(ctx, pixelID, predictAt, trainHorizon)
	if err != nil {
		return nil, err
	}

	length := daysPerWeek * trainHorizon
	first := anchor - length*t.perDay
	if first < 0 {
		return nil, h.insufficient(pixelID, predictAt, trainHorizon)
	}

	training := Series{
		Index:  make([]time.Time, 0, length),
		Values: make([]float64, 0, length),
	}
	for i := first; i < anchor; i += t.perDay {
		training.Index = append(training.Index, t.bucketAt(i))
		training.Values = append(training.Values, float64(row[i]))
	}
	if training.Len() != length {
		return nil, h.insufficient(pixelID, predictAt, trainHorizon)
	}

	return &TimeSeries{
		Training:  training,
		Actuals:   t.series(row, anchor, anchor+1),
		Frequency: daysPerWeek,
	}, nil
}

// VerticalTimeSeries slices every bucket of the 7*trainHorizon days
// preceding predictDay. The actuals are all buckets of predictDay and the
// frequency is one week of buckets.
func (h *OrderHistory) VerticalTimeSeries(ctx context.Context, pixelID uuid.UUID, predictDay time.Time, trainHorizon int) (*TimeSeries, error) {
	if trainHorizon < 1 {
		return nil, ErrInvalidHorizon
	}
	t, err := h.Totals(ctx)
	if err != nil {
		return nil, err
	}
	row, err := t.row(pixelID)
	if err != nil {
		return nil, err
	}

	day, ok := t.dayIndex(predictDay)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAnchorNotFound, predictDay.Format(time.DateOnly))
	}
	start, end := day*t.perDay, (day+1)*t.perDay
	if !h.beforeCutoff(t.bucketAt(end - 1)) {
		return nil, fmt.Errorf("%w: %s is past the cutoff", ErrAnchorNotFound, predictDay.Format(time.DateOnly))
	}

	first := start - daysPerWeek*trainHorizon*t.perDay
	if first < 0 {
		return nil, h.insufficient(pixelID, predictDay, trainHorizon)
	}

	return &TimeSeries{
		Training:  t.series(row, first, start),
		Actuals:   t.series(row, start, end),
		Frequency: daysPerWeek * t.perDay,
	}, nil
}

// RealTimeTimeSeries extends the vertical training window with the buckets of
// predictAt's day that start before predictAt. At the first bucket of the day
// it equals the vertical window.
func (h *OrderHistory) RealTimeTimeSeries(ctx context.Context, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*TimeSeries, error) {
	t, row, anchor, err := h.locate(ctx, pixelID, predictAt, trainHorizon)
	if err != nil {
		return nil, err
	}

	dayStart := anchor - anchor%t.perDay
	first := dayStart - daysPerWeek*trainHorizon*t.perDay
	if first < 0 {
		return nil, h.insufficient(pixelID, predictAt, trainHorizon)
	}

	return &TimeSeries{
		Training:  t.series(row, first, anchor),
		Actuals:   t.series(row, anchor, anchor+1),
		Frequency: daysPerWeek * t.perDay,
	}, nil
}

// AvgDailyDemand is the mean number of orders per day over the vertical
// training window preceding predictDay
func (h *OrderHistory) AvgDailyDemand(ctx context.Context, pixelID uuid.UUID, predictDay time.Time, trainHorizon int) (float64, error) {
	ts, err := h.VerticalTimeSeries(ctx, pixelID, predictDay, trainHorizon)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, v := range ts.Training.Values {
		total += v
	}
	return total / float64(daysPerWeek*trainHorizon), nil
}

// FirstOrderAt returns the start of the pixel's first non-empty bucket
func (h *OrderHistory) FirstOrderAt(ctx context.Context, pixelID uuid.UUID) (time.Time, error) {
	t, err := h.Totals(ctx)
	if err != nil {
		return time.Time{}, err
	}
	row, err := t.row(pixelID)
	if err != nil {
		return time.Time{}, err
	}
	for i, count := range row {
		if count > 0 {
			return t.bucketAt(i), nil
		}
	}
	return time.Time{}, ErrPixelNotFound
}

// LastOrderAt returns the start of the pixel's last non-empty bucket
func (h *OrderHistory) LastOrderAt(ctx context.Context, pixelID uuid.UUID) (time.Time, error) {
	t, err := h.Totals(ctx)
	if err != nil {
		return time.Time{}, err
	}
	row, err := t.row(pixelID)
	if err != nil {
		return time.Time{}, err
	}
	for i := len(row) - 1; i >= 0; i-- {
		if row[i] > 0 {
			return t.bucketAt(i), nil
		}
	}
	return time.Time{}, ErrPixelNotFound
}

// locate resolves the pixel row and the bucket index of a prediction anchor
func (h *OrderHistory) locate(ctx context.Context, pixelID uuid.UUID, predictAt time.Time, trainHorizon int) (*Totals, []int, int, error) {
	if trainHorizon < 1 {
		return nil, nil, 0, ErrInvalidHorizon
	}
	t, err := h.Totals(ctx)
	if err != nil {
		return nil, nil, 0, err
	}
	row, err := t.row(pixelID)
	if err != nil {
		return nil, nil, 0, err
	}

	anchor, ok := t.bucketIndex(predictAt)
	if !ok || !h.beforeCutoff(predictAt) {
		return nil, nil, 0, fmt.Errorf("%w: %s", ErrAnchorNotFound, predictAt.Format(time.DateTime))
	}
	return t, row, anchor, nil
}

func (h *OrderHistory) beforeCutoff(at time.Time) bool {
	return h.cfg.Cutoff.IsZero() || at.Before(h.cfg.Cutoff)
}

func (h *OrderHistory) insufficient(pixelID uuid.UUID, anchor time.Time, trainHorizon int) error {
	return fmt.Errorf("%w: pixel %s at %s with %d weeks", ErrInsufficientHistory, pixelID, anchor.Format(time.DateTime), trainHorizon)
}
