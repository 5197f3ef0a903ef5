package demandforecast

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cachedForecast() *Forecast {
	low, high := 1.0, 5.0
	return &Forecast{
		ID:           uuid.New(),
		PixelID:      uuid.New(),
		StartAt:      predictAt,
		TimeStep:     60,
		TrainHorizon: 8,
		Model:        ModelHorizontalETS,
		Actual:       3,
		Prediction:   2.5,
		Low95:        &low,
		High95:       &high,
		CreatedAt:    time.Date(2016, time.August, 16, 3, 0, 0, 0, time.UTC),
	}
}

func TestCacheKey(t *testing.T) {
	pixel := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	key := ForecastKey{PixelID: pixel, StartAt: predictAt, TimeStep: 60, TrainHorizon: 8, Model: "hets"}

	assert.Equal(t, "forecast:6ba7b810-9dad-11d1-80b4-00c04fd430c8:1471262400:60:8:hets", CacheKey(key))
}

func TestCachedRepository_Hit(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	next := new(MockRepository)
	repo := NewCachedRepository(next, client, time.Hour)
	ctx := context.Background()

	f := cachedForecast()
	data, err := json.Marshal(f)
	require.NoError(t, err)
	redisMock.ExpectGet(CacheKey(f.Key())).SetVal(string(data))

	got, err := repo.GetForecast(ctx, f.Key())

	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, f.Prediction, got.Prediction)
	assert.True(t, f.StartAt.Equal(got.StartAt))
	require.NotNil(t, got.Low95)
	assert.Equal(t, 1.0, *got.Low95)
	assert.Nil(t, got.Low80)
	next.AssertNotCalled(t, "GetForecast", mock.Anything, mock.Anything)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedRepository_MissFillsCache(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	next := new(MockRepository)
	repo := NewCachedRepository(next, client, time.Hour)
	ctx := context.Background()

	f := cachedForecast()
	data, err := json.Marshal(f)
	require.NoError(t, err)

	redisMock.ExpectGet(CacheKey(f.Key())).RedisNil()
	next.On("GetForecast", ctx, f.Key()).Return(f, nil)
	redisMock.ExpectSet(CacheKey(f.Key()), data, time.Hour).SetVal("OK")

	got, err := repo.GetForecast(ctx, f.Key())

	require.NoError(t, err)
	assert.Same(t, f, got)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedRepository_NotFoundIsNotCached(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	next := new(MockRepository)
	repo := NewCachedRepository(next, client, time.Hour)
	ctx := context.Background()

	key := cachedForecast().Key()
	redisMock.ExpectGet(CacheKey(key)).RedisNil()
	next.On("GetForecast", ctx, key).Return(nil, ErrForecastNotFound)

	_, err := repo.GetForecast(ctx, key)

	assert.ErrorIs(t, err, ErrForecastNotFound)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedRepository_RedisDownFallsBack(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	next := new(MockRepository)
	repo := NewCachedRepository(next, client, time.Hour)
	ctx := context.Background()

	f := cachedForecast()
	redisMock.ExpectGet(CacheKey(f.Key())).SetErr(errors.New("dial tcp: connection refused"))
	next.On("GetForecast", ctx, f.Key()).Return(f, nil)

	// The cache write fails as well and is only logged.
	got, err := repo.GetForecast(ctx, f.Key())

	require.NoError(t, err)
	assert.Same(t, f, got)
}

func TestCachedRepository_CreateWarmsCache(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	next := new(MockRepository)
	repo := NewCachedRepository(next, client, 24*time.Hour)
	ctx := context.Background()

	f := cachedForecast()
	data, err := json.Marshal(f)
	require.NoError(t, err)

	next.On("CreateForecasts", ctx, []*Forecast{f}).Return(nil)
	redisMock.ExpectSet(CacheKey(f.Key()), data, 24*time.Hour).SetVal("OK")

	require.NoError(t, repo.CreateForecasts(ctx, []*Forecast{f}))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedRepository_CreateFailureSkipsCache(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	next := new(MockRepository)
	repo := NewCachedRepository(next, client, time.Hour)
	ctx := context.Background()

	f := cachedForecast()
	next.On("CreateForecasts", ctx, []*Forecast{f}).Return(ErrDuplicateForecast)

	err := repo.CreateForecasts(ctx, []*Forecast{f})

	assert.ErrorIs(t, err, ErrIntegrity)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
