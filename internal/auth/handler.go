package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"courtslot/internal/api"
	"courtslot/internal/logger"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// Handler authenticates the single admin account configured via
// environment variables. There is no user table behind it.
type Handler struct {
	adminEmail        string
	adminPasswordHash string
	jwtSecret         string
}

func NewHandler(adminEmail, adminPasswordHash, jwtSecret string) *Handler {
	return &Handler{
		adminEmail:        adminEmail,
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         jwtSecret,
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "email and password are required"})
		return
	}

	if req.Email != h.adminEmail || !CheckPassword(h.adminPasswordHash, req.Password) {
		logger.Errorf("Failed admin login attempt for %s", req.Email)
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid credentials"})
		return
	}

	token, err := GenerateToken(req.Email, "admin", h.jwtSecret)
	if err != nil {
		logger.Errorf("Failed to generate token: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresIn: int64(TokenTTL.Seconds()),
	})
}
