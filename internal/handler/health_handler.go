// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-agent/internal/config"
	"printer-agent/internal/service"
	"printer-agent/internal/store"
	"printer-agent/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store     *store.Store
	printers  *service.PrinterService
	config    *config.Config
	logger    *utils.ServiceLogger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(jobStore *store.Store, printers *service.PrinterService, cfg *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:     jobStore,
		printers:  printers,
		config:    cfg,
		logger:    utils.NewServiceLogger(logger, "health-handler"),
		startTime: time.Now(),
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.HealthCheck)
	router.GET("/health/detailed", h.DetailedHealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Get overall agent health including ledger connectivity and printer availability
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse "Agent is healthy"
// @Failure 503 {object} HealthResponse "Agent is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).String(),
		Checks:    make(map[string]CheckResult),
	}

	if err := h.store.HealthCheck(); err != nil {
		health.Status = "unhealthy"
		health.Checks["ledger"] = CheckResult{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	} else {
		health.Checks["ledger"] = CheckResult{
			Status:  "healthy",
			Message: "Ledger database OK",
		}
	}

	// A printerless agent still answers but flags itself degraded;
	// jobs pile up at the backend until something is attached.
	if h.printers.HasPrinter() {
		health.Checks["printer"] = CheckResult{
			Status: "healthy",
			Data: map[string]interface{}{
				"attached": len(h.printers.List()),
			},
		}
	} else {
		if health.Status == "healthy" {
			health.Status = "degraded"
		}
		health.Checks["printer"] = CheckResult{
			Status:  "degraded",
			Message: "No printer attached",
		}
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// DetailedHealthCheck reports uptime, printers and ledger statistics
// @Summary Detailed health check
// @Description Get uptime, attached printers and job ledger statistics
// @Tags Health
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse "Detailed health retrieved"
// @Failure 503 {object} utils.APIResponse "Ledger unavailable"
// @Router /health/detailed [get]
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		h.logger.Error("Ledger stats failed", zap.Error(err))
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Ledger unavailable", err)
		return
	}

	printers := h.printers.List()
	var defaultAddress string
	if target := h.printers.DefaultPrinter(); target != nil {
		defaultAddress = target.DeviceAddress
	}

	utils.SuccessResponse(c, http.StatusOK, "Detailed health retrieved", gin.H{
		"service":         h.config.App.Name,
		"version":         h.config.App.Version,
		"uptime":          time.Since(h.startTime).String(),
		"paired":          h.config.IsPaired(),
		"printer_count":   len(printers),
		"printers":        printers,
		"default_printer": defaultAddress,
		"ledger":          stats,
	})
}

// ReadinessCheck reports whether the agent can take requests
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if err := h.store.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "ledger not available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck reports that the process is alive
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
