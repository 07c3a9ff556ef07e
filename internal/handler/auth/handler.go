package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hospitalops/etrack-api/internal/handler"
	"github.com/hospitalops/etrack-api/internal/model"
	authsvc "github.com/hospitalops/etrack-api/internal/service/auth"
	pkgauth "github.com/hospitalops/etrack-api/pkg/auth"
)

type Handler struct {
	service *authsvc.Service
}

func NewHandler(service *authsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid email or password"))
		case errors.Is(err, authsvc.ErrAccountLocked):
			c.JSON(http.StatusTooManyRequests, handler.NewErrorResponse("account temporarily locked"))
		case errors.Is(err, authsvc.ErrAccountInactive):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("account is not active"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("login failed"))
		}
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	tokens, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, pkgauth.ErrExpiredToken), errors.Is(err, pkgauth.ErrInvalidToken):
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid refresh token"))
		case errors.Is(err, authsvc.ErrAccountInactive):
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("account is not active"))
		default:
			c.JSON(http.StatusInternalServerError, handler.NewErrorResponse("token refresh failed"))
		}
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}
