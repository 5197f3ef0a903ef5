package common

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

// HealthCheck returns a liveness handler
func HealthCheck(serviceName, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: serviceName,
			Version: version,
		})
	}
}

// ReadinessCheck returns a handler that runs every dependency check and reports 503 if any fails
func ReadinessCheck(serviceName, version string, checks map[string]CheckFunc) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		status := "ready"
		checkResults := make(map[string]string, len(checks))

		for _, name := range names {
			if err := checks[name](c.Request.Context()); err != nil {
				checkResults[name] = "unhealthy: " + err.Error()
				status = "unavailable"
			} else {
				checkResults[name] = "healthy"
			}
		}

		statusCode := http.StatusOK
		if status != "ready" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, HealthResponse{
			Status:  status,
			Service: serviceName,
			Version: version,
			Checks:  checkResults,
		})
	}
}
