// internal/handler/render_handler.go
package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-agent/internal/render"
	"printer-agent/internal/utils"
)

// RenderHandler exposes the template engine over HTTP as a debugging
// aid: see the exact bytes a layout and data set would produce without
// feeding paper.
type RenderHandler struct {
	renderer *render.Renderer
	logger   *utils.ServiceLogger
}

// NewRenderHandler creates a new render handler
func NewRenderHandler(renderer *render.Renderer, logger *zap.Logger) *RenderHandler {
	return &RenderHandler{
		renderer: renderer,
		logger:   utils.NewServiceLogger(logger, "render-handler"),
	}
}

// RegisterRoutes registers render routes
func (h *RenderHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/render/preview", h.Preview)
}

// PreviewRequest carries a layout template and order data, both as raw
// JSON strings the way the backend delivers them.
type PreviewRequest struct {
	Template string `json:"template" binding:"required"`
	Data     string `json:"data" binding:"required"`
}

// Preview renders a template against data and returns the byte stream
// @Summary Render preview
// @Description Render a layout template against order data and return the ESC/POS bytes base64-encoded
// @Tags Render
// @Accept json
// @Produce json
// @Param request body PreviewRequest true "Template and data as raw JSON strings"
// @Success 200 {object} utils.APIResponse{data=object{payload=string,length=int}} "Render completed"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /render/preview [post]
func (h *RenderHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payload := h.renderer.Render(req.Template, req.Data)

	utils.SuccessResponse(c, http.StatusOK, "Render completed", gin.H{
		"payload": base64.StdEncoding.EncodeToString(payload),
		"length":  len(payload),
	})
}
