package common

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("pixel not in order history")

	tests := []struct {
		name     string
		err      *AppError
		code     int
		expected string
	}{
		{name: "bad request", err: NewBadRequestError("bad input", cause), code: http.StatusBadRequest, expected: "bad input: pixel not in order history"},
		{name: "not found", err: NewNotFoundError("missing", cause), code: http.StatusNotFound, expected: "missing: pixel not in order history"},
		{name: "conflict", err: NewConflictError("duplicate", cause), code: http.StatusConflict, expected: "duplicate: pixel not in order history"},
		{name: "unprocessable", err: NewUnprocessableError("too short", cause), code: http.StatusUnprocessableEntity, expected: "too short: pixel not in order history"},
		{name: "internal without cause", err: NewInternalServerError("failed"), code: http.StatusInternalServerError, expected: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}

	assert.ErrorIs(t, NewNotFoundError("missing", cause), cause)
}

func serveHealth(handler gin.HandlerFunc) (*httptest.ResponseRecorder, HealthResponse) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHealthCheck(t *testing.T) {
	w, resp := serveHealth(HealthCheck("forecaster", "1.0.0"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "forecaster", resp.Service)
	assert.Equal(t, "1.0.0", resp.Version)
}

func TestReadinessCheck(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all healthy", func(t *testing.T) {
		w, resp := serveHealth(ReadinessCheck("forecaster", "1.0.0", map[string]CheckFunc{"database": ok, "redis": ok}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, map[string]string{"database": "healthy", "redis": "healthy"}, resp.Checks)
	})

	t.Run("one dependency down", func(t *testing.T) {
		w, resp := serveHealth(ReadinessCheck("forecaster", "1.0.0", map[string]CheckFunc{"database": ok, "redis": down}))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unavailable", resp.Status)
		assert.Equal(t, "unhealthy: connection refused", resp.Checks["redis"])
		assert.Equal(t, "healthy", resp.Checks["database"])
	})
}

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	AppErrorResponse(c, NewConflictError("forecast already exists", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, http.StatusConflict, resp.Error.Code)
	assert.Equal(t, "forecast already exists", resp.Error.Message)
}
