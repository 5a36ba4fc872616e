package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/responses"
	"github.com/postcode-matcher/app/services"
	"github.com/postcode-matcher/helpers/utils"
)

// AdminController serves the operational endpoints under /v1/admin.
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminController{adminService: adminService, logger: logger}
}

// Reload loads a new dataset generation from the configured source.
func (ac *AdminController) Reload(c *gin.Context) {
	res, err := ac.adminService.Reload(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// InvalidateCache drops every cached result.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	start := time.Now()
	if err := ac.adminService.InvalidateCache(c.Request.Context()); err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "cache invalidated",
		Data:    gin.H{"processing_time_ms": time.Since(start).Milliseconds()},
	})
}

// PublishIndex pushes the current generation to the search index.
func (ac *AdminController) PublishIndex(c *gin.Context) {
	start := time.Now()
	n, err := ac.adminService.PublishIndex(c.Request.Context())
	if errors.Is(err, services.ErrIndexNotConfigured) {
		c.JSON(http.StatusNotImplemented, responses.ErrorResponse{
			Error:     "INDEX_DISABLED",
			Message:   err.Error(),
			RequestID: c.GetString(utils.RequestIDKey),
		})
		return
	}
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.IndexResponse{Indexed: n, ProcessingTimeMs: time.Since(start).Milliseconds()})
}

func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
