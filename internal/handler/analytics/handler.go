package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hospitalops/etrack-api/internal/handler"
	"github.com/hospitalops/etrack-api/internal/model"
	analyticssvc "github.com/hospitalops/etrack-api/internal/service/analytics"
	apperrors "github.com/hospitalops/etrack-api/pkg/errors"
)

type Handler struct {
	service *analyticssvc.Service
}

func NewHandler(service *analyticssvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	analytics := r.Group("/analytics")
	{
		analytics.GET("/dashboard", h.Dashboard)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	var filters model.RequestFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	metrics, err := h.service.Dashboard(c.Request.Context(), &filters)
	if err != nil {
		// Deferred to the error handler middleware.
		c.Error(apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(metrics))
}
