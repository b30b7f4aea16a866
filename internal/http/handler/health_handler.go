package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/straye-as/renewal-api/internal/database"
	"go.uber.org/zap"
)

const healthTimeout = 5 * time.Second

// StoreChecker is the part of database.Stores the probes use
type StoreChecker interface {
	HealthCheck(ctx context.Context) error
	HealthCheckWithStats(ctx context.Context) (map[string]database.StoreHealth, bool)
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	stores StoreChecker
	logger *zap.Logger
}

func NewHealthHandler(stores StoreChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{stores: stores, logger: logger}
}

// Live godoc
// @Summary Liveness probe
// @Tags Health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Ready godoc
// @Summary Readiness probe
// @Description Pings the users, projects and meetings stores
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.stores.HealthCheck(ctx); err != nil {
		h.logger.Error("readiness check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"checks": map[string]interface{}{
				"database": map[string]string{"status": "unhealthy", "error": err.Error()},
			},
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"checks": map[string]interface{}{
			"database": map[string]string{"status": "healthy"},
		},
	})
}

// Database godoc
// @Summary Per-store database health with pool statistics
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	stores, healthy := h.stores.HealthCheckWithStats(ctx)
	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
		h.logger.Error("database health check failed", zap.Any("stores", stores))
	}
	respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": "database",
		"stores":  stores,
	})
}
