package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("forecaster")
	require.NoError(t, err)

	assert.Equal(t, "forecaster", cfg.Server.ServiceName)
	assert.Equal(t, 60, cfg.Forecast.TimeStepMinutes)
	assert.Equal(t, time.Hour, cfg.Forecast.TimeStep())
	assert.Equal(t, 11, cfg.Forecast.OperatingStartHour)
	assert.Equal(t, 23, cfg.Forecast.OperatingEndHour)
	assert.Equal(t, 8, cfg.Forecast.TrainHorizon)
	assert.Equal(t, []int{707, 1000, 1414}, cfg.Forecast.SideLengths)
	assert.Equal(t, time.Date(2017, time.February, 1, 0, 0, 0, 0, time.UTC), cfg.Forecast.Cutoff)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.NATS.Enabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("FORECAST_TIME_STEP", "30")
	t.Setenv("FORECAST_SIDE_LENGTHS", "500, 1000")
	t.Setenv("FORECAST_CUTOFF", "none")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("FORECAST_CACHE_TTL_HOURS", "2")

	cfg, err := Load("forecaster")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Forecast.TimeStep())
	assert.Equal(t, []int{500, 1000}, cfg.Forecast.SideLengths)
	assert.True(t, cfg.Forecast.Cutoff.IsZero())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.Forecast.CacheTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "malformed side lengths", key: "FORECAST_SIDE_LENGTHS", value: "1000,big"},
		{name: "non-positive side length", key: "FORECAST_SIDE_LENGTHS", value: "1000,0"},
		{name: "malformed cutoff", key: "FORECAST_CUTOFF", value: "01/02/2017"},
		{name: "operating hours reversed", key: "FORECAST_SERVICE_END", value: "10"},
		{name: "zero time step", key: "FORECAST_TIME_STEP", value: "0"},
		{name: "zero horizon", key: "FORECAST_TRAIN_HORIZON", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load("forecaster")

			assert.Nil(t, cfg)
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_URL(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "demand", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/demand?sslmode=disable", cfg.URL())
}
