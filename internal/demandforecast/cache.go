package demandforecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/richxcame/demand-forecasting/pkg/logger"
	redisutil "github.com/richxcame/demand-forecasting/pkg/redis"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "forecast"

// CachedRepository serves forecast lookups from Redis before falling back to
// the wrapped repository. Forecasts are never updated, so entries are only
// written, never invalidated. Misses are not cached.
type CachedRepository struct {
	next RepositoryInterface
	rdb  redis.Cmdable
	ttl  time.Duration
}

// NewCachedRepository wraps next with a Redis cache
func NewCachedRepository(next RepositoryInterface, rdb redis.Cmdable, ttl time.Duration) *CachedRepository {
	return &CachedRepository{next: next, rdb: rdb, ttl: ttl}
}

// CacheKey renders the Redis key of a forecast key
func CacheKey(key ForecastKey) string {
	return fmt.Sprintf("%s:%s:%d:%d:%d:%s",
		cacheKeyPrefix, key.PixelID, key.StartAt.Unix(), key.TimeStep, key.TrainHorizon, key.Model)
}

// GetForecast implements RepositoryInterface
func (r *CachedRepository) GetForecast(ctx context.Context, key ForecastKey) (*Forecast, error) {
	var cached Forecast
	err := redisutil.GetJSON(ctx, r.rdb, CacheKey(key), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, redisutil.ErrCacheMiss) {
		logger.WithContext(ctx).Warn("Forecast cache read failed", zap.Error(err))
	}

	f, err := r.next.GetForecast(ctx, key)
	if err != nil {
		return nil, err
	}
	r.store(ctx, f)
	return f, nil
}

// CreateForecasts implements RepositoryInterface and warms the cache on success
func (r *CachedRepository) CreateForecasts(ctx context.Context, forecasts []*Forecast) error {
	if err := r.next.CreateForecasts(ctx, forecasts); err != nil {
		return err
	}
	for _, f := range forecasts {
		r.store(ctx, f)
	}
	return nil
}

// ListForecasts implements RepositoryInterface without caching
func (r *CachedRepository) ListForecasts(ctx context.Context, pixelID uuid.UUID, from, to time.Time) ([]*Forecast, error) {
	return r.next.ListForecasts(ctx, pixelID, from, to)
}

func (r *CachedRepository) store(ctx context.Context, f *Forecast) {
	if err := redisutil.SetJSON(ctx, r.rdb, CacheKey(f.Key()), f, r.ttl); err != nil {
		logger.WithContext(ctx).Warn("Forecast cache write failed",
			zap.String("forecast_id", f.ID.String()),
			zap.Error(err),
		)
	}
}
