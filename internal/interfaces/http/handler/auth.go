package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/clinic/backend/internal/infrastructure/auth"
	"github.com/clinic/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles cashier session endpoints
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
	verifier   *auth.CredentialVerifier
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(jwtService *auth.JWTService, verifier *auth.CredentialVerifier, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		verifier:   verifier,
		logger:     logger,
	}
}

// Login verifies the configured cashier credentials and issues a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid login request body")
		return
	}

	input, err := h.verifier.Verify(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Warn("Login rejected",
				zap.String("username", req.Username),
				zap.String("client_ip", c.ClientIP()))
			h.Unauthorized(c, "Invalid username or password")
			return
		}
		h.HandleError(c, err)
		return
	}

	token, err := h.jwtService.GenerateToken(*input)
	if err != nil {
		h.logger.Error("Token generation failed", zap.Error(err))
		h.InternalError(c, "Could not issue session token")
		return
	}

	h.logger.Info("Cashier logged in",
		zap.String("username", input.Username),
		zap.String("user_id", input.UserID.String()))

	h.Success(c, dto.LoginResponse{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt.Format(time.RFC3339),
		TokenType:   token.TokenType,
		Username:    input.Username,
		Role:        input.Role,
	})
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
	}
}
