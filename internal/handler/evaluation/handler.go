package evaluation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hospitalops/etrack-api/internal/handler"
	"github.com/hospitalops/etrack-api/internal/lifecycle"
	"github.com/hospitalops/etrack-api/internal/model"
	"github.com/hospitalops/etrack-api/internal/repository"
	evalsvc "github.com/hospitalops/etrack-api/internal/service/evaluation"
)

type Handler struct {
	service *evalsvc.Service
}

func NewHandler(service *evalsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	evaluations := r.Group("/evaluations")
	{
		evaluations.POST("", h.Submit)
		evaluations.GET("/by-request/:id", h.GetByRequest)
	}
}

func (h *Handler) Submit(c *gin.Context) {
	actor, ok := handler.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	var req model.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, handler.NewErrorResponse(err.Error()))
		return
	}

	eval, err := h.service.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("request not found"))
		case errors.Is(err, lifecycle.ErrUnauthorized):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse(err.Error()))
		case errors.Is(err, lifecycle.ErrTerminal),
			errors.Is(err, evalsvc.ErrAlreadyEvaluated),
			errors.Is(err, repository.ErrStatusConflict):
			c.JSON(http.StatusConflict, handler.NewErrorResponse(err.Error()))
		case errors.Is(err, lifecycle.ErrInvalidAction):
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		case errors.Is(err, evalsvc.ErrNoCriteriaScored),
			errors.Is(err, evalsvc.ErrInvalidScore),
			errors.Is(err, evalsvc.ErrNoEmployeeID):
			c.JSON(http.StatusUnprocessableEntity, handler.NewErrorResponse(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(eval))
}

func (h *Handler) GetByRequest(c *gin.Context) {
	actor, ok := handler.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("unauthenticated"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid request ID"))
		return
	}

	eval, err := h.service.GetByRequest(c.Request.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("evaluation not found"))
		case errors.Is(err, evalsvc.ErrNotViewable):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(eval))
}
