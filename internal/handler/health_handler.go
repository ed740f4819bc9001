package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/catalog_api/internal/utils"
)

var startTime = time.Now()

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. checks maps a dependency name to its probe.
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

// GetHealth responds with service status and the state of each dependency.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := gin.H{}
	healthy := true
	for _, name := range names {
		status := "connected"
		if err := h.checks[name](ctx); err != nil {
			status = "disconnected"
			healthy = false
		}
		deps[name] = gin.H{"status": status}
	}

	code, status, msg := http.StatusOK, "healthy", "Service is healthy"
	if !healthy {
		code, status, msg = http.StatusServiceUnavailable, "degraded", "Service is degraded"
	}

	utils.Success(c, code, msg, gin.H{
		"status":       status,
		"version":      "1.0.0",
		"uptime":       int(time.Since(startTime).Seconds()),
		"dependencies": deps,
	})
}
