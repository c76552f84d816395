package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/server/http/dto"
	"github.com/polkiloo/fooddispatch/internal/server/http/middleware"
	"github.com/polkiloo/fooddispatch/internal/usecase"
)

// AuthHandler processes registration and login.
type AuthHandler struct {
	facade AuthFacade
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade) *AuthHandler {
	return &AuthHandler{facade: facade}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, email, password and role are required")
		return
	}

	usr, token, err := h.facade.Register(c.Request.Context(), usecase.RegisterInput{
		Name:                req.Name,
		Email:               req.Email,
		Password:            req.Password,
		Role:                model.Role(req.Role),
		AverageDeliveryTime: req.AverageDeliveryTime,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusCreated, dto.AuthResponse{Token: token, User: usr.View()})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	usr, token, err := h.facade.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, dto.AuthResponse{Token: token, User: usr.View()})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	usr, err := h.facade.Me(c.Request.Context(), CurrentIdentity(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, usr.View())
}
