// internal/handler/job_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-agent/internal/store"
	"printer-agent/internal/utils"
)

// JobHandler exposes the local job ledger
type JobHandler struct {
	store  *store.Store
	logger *utils.ServiceLogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobStore *store.Store, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		store:  jobStore,
		logger: utils.NewServiceLogger(logger, "job-handler"),
	}
}

// RegisterRoutes registers job-related routes
func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/jobs")
	{
		jobs.GET("/stats", h.GetStats)
		jobs.GET("/:guid/status", h.GetJobStatus)
	}
}

// GetStats summarizes the local ledger
// @Summary Job ledger statistics
// @Description Get counts of processed jobs by status plus the oldest retained entry
// @Tags Jobs
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.JobStats} "Ledger stats retrieved"
// @Failure 500 {object} utils.APIResponse "Ledger unavailable"
// @Router /jobs/stats [get]
func (h *JobHandler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		h.logger.Error("Failed to read ledger stats", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Ledger unavailable", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ledger stats retrieved", stats)
}

// GetJobStatus looks up one job's recorded outcome
// @Summary Job status
// @Description Get the locally recorded outcome for a job GUID
// @Tags Jobs
// @Accept json
// @Produce json
// @Param guid path string true "Job GUID"
// @Success 200 {object} utils.APIResponse{data=model.ProcessedJob} "Job status retrieved"
// @Failure 404 {object} utils.APIResponse "Job not in ledger"
// @Failure 500 {object} utils.APIResponse "Ledger unavailable"
// @Router /jobs/{guid}/status [get]
func (h *JobHandler) GetJobStatus(c *gin.Context) {
	jobGUID := c.Param("guid")
	if jobGUID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Job GUID is required", nil)
		return
	}

	job, err := h.store.Status(jobGUID)
	if err != nil {
		h.logger.Error("Failed to look up job",
			zap.String("job_guid", jobGUID),
			zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Ledger unavailable", err)
		return
	}
	if job == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Job not in ledger", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job status retrieved", job)
}
