// internal/handler/discovery_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-agent/internal/model"
	"printer-agent/internal/service"
	"printer-agent/internal/utils"
)

// DiscoveryHandler handles printer discovery requests
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	discovery := router.Group("/discovery")
	{
		discovery.POST("/scan", h.ScanPrinters)
		discovery.POST("/attach", h.AttachPrinter)
		discovery.GET("/scanners", h.GetScanners)
	}
}

// ScanPrinters runs a one-off printer scan
// @Summary Scan for printers
// @Description Scan for printers on USB, serial or the configured network subnet
// @Tags Discovery
// @Accept json
// @Produce json
// @Param type query string false "Scan type" Enums(all, usb, serial, tcp) default(all)
// @Success 200 {object} utils.APIResponse{data=object{printers_found=int,printers=[]model.DiscoveredPrinter}} "Printer scan completed"
// @Failure 500 {object} utils.APIResponse "Scan failed"
// @Router /discovery/scan [post]
func (h *DiscoveryHandler) ScanPrinters(c *gin.Context) {
	scanType := c.DefaultQuery("type", "all")

	printers, err := h.discoveryService.Scan(c.Request.Context(), scanType)
	if err != nil {
		h.logger.Error("Failed to scan printers", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to scan printers", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer scan completed", gin.H{
		"printers_found": len(printers),
		"printers":       printers,
	})
}

// AttachPrinter attaches a discovered printer on explicit request
// @Summary Attach a discovered printer
// @Description Attach a printer from a scan result, regardless of its confidence
// @Tags Discovery
// @Accept json
// @Produce json
// @Param request body model.DiscoveredPrinter true "Discovered printer from a scan result"
// @Success 200 {object} utils.APIResponse{data=model.Printer} "Printer attached"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 500 {object} utils.APIResponse "Attach failed"
// @Router /discovery/attach [post]
func (h *DiscoveryHandler) AttachPrinter(c *gin.Context) {
	var discovered model.DiscoveredPrinter
	if err := c.ShouldBindJSON(&discovered); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if discovered.DeviceAddress == "" || discovered.ConnectionType == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "device_address and connection_type are required", nil)
		return
	}

	printer, err := h.discoveryService.Attach(c.Request.Context(), &discovered)
	if err != nil {
		h.logger.Error("Failed to attach printer",
			zap.String("address", discovered.DeviceAddress),
			zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to attach printer", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer attached", printer)
}

// GetScanners lists the scanner types available on this host
// @Summary Get available scanners
// @Description Get the discovery scanner types that can run on this host
// @Tags Discovery
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{scanners=[]string}} "Scanners retrieved"
// @Router /discovery/scanners [get]
func (h *DiscoveryHandler) GetScanners(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Scanners retrieved", gin.H{
		"scanners": h.discoveryService.AvailableScanners(),
	})
}
