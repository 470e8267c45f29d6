// internal/handler/printer_handler.go
package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-agent/internal/service"
	"printer-agent/internal/utils"
)

// PrinterHandler handles printer-related HTTP requests
type PrinterHandler struct {
	printers *service.PrinterService
	logger   *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printers *service.PrinterService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printers: printers,
		logger:   utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// RegisterRoutes registers printer-related routes
func (h *PrinterHandler) RegisterRoutes(router *gin.RouterGroup) {
	printers := router.Group("/printers")
	{
		printers.GET("", h.ListPrinters)
		printers.GET("/default", h.GetDefaultPrinter)

		// Device addresses contain slashes (/dev/usb/lp0); clients
		// URL-encode them and the router runs with raw paths on.
		printerRoutes := printers.Group("/:address")
		{
			printerRoutes.GET("", h.GetPrinter)
			printerRoutes.POST("/test", h.TestPrinter)
			printerRoutes.PUT("/default", h.SetDefaultPrinter)
		}
	}
}

// deviceAddress decodes the address path parameter
func deviceAddress(c *gin.Context) string {
	raw := c.Param("address")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// ListPrinters lists attached printers
// @Summary List printers
// @Description Get all printers currently attached to this agent
// @Tags Printers
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{printers_found=int,printers=[]model.Printer}} "Printers retrieved successfully"
// @Router /printers [get]
func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers := h.printers.List()
	utils.SuccessResponse(c, http.StatusOK, "Printers retrieved successfully", gin.H{
		"printers_found": len(printers),
		"printers":       printers,
	})
}

// GetPrinter retrieves one printer by device address
// @Summary Get printer details
// @Description Get one attached printer by its URL-encoded device address
// @Tags Printers
// @Accept json
// @Produce json
// @Param address path string true "URL-encoded device address"
// @Success 200 {object} utils.APIResponse{data=model.Printer} "Printer retrieved successfully"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /printers/{address} [get]
func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	address := deviceAddress(c)

	printer, err := h.printers.Get(address)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Printer not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer retrieved successfully", printer)
}

// GetDefaultPrinter retrieves the current default printer
// @Summary Get default printer
// @Description Get the printer that print jobs are routed to
// @Tags Printers
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.Printer} "Default printer retrieved"
// @Failure 404 {object} utils.APIResponse "No printer attached"
// @Router /printers/default [get]
func (h *PrinterHandler) GetDefaultPrinter(c *gin.Context) {
	printer := h.printers.DefaultPrinter()
	if printer == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "No printer attached", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Default printer retrieved", printer)
}

// SetDefaultPrinter elects a printer as the job target
// @Summary Set default printer
// @Description Route all subsequent print jobs to this printer
// @Tags Printers
// @Accept json
// @Produce json
// @Param address path string true "URL-encoded device address"
// @Success 200 {object} utils.APIResponse "Default printer changed"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /printers/{address}/default [put]
func (h *PrinterHandler) SetDefaultPrinter(c *gin.Context) {
	address := deviceAddress(c)

	if err := h.printers.SetDefault(address); err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Printer not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Default printer changed", gin.H{
		"device_address": address,
	})
}

// TestPrinter sends a self-test receipt
// @Summary Test printer
// @Description Print a short self-test receipt with Turkish sample text
// @Tags Printers
// @Accept json
// @Produce json
// @Param address path string true "URL-encoded device address"
// @Success 200 {object} utils.APIResponse{data=service.PrintResult} "Test print completed"
// @Failure 500 {object} utils.APIResponse "Test print failed"
// @Router /printers/{address}/test [post]
func (h *PrinterHandler) TestPrinter(c *gin.Context) {
	address := deviceAddress(c)

	result, err := h.printers.TestPrint(c.Request.Context(), address)
	if err != nil {
		h.logger.Error("Test print failed",
			zap.String("address", address),
			zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Test print failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Test print completed", result)
}
