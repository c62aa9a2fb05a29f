package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prazwal-bns/imageprompt-api/internal/api/middleware"
	"github.com/prazwal-bns/imageprompt-api/internal/logger"
	"github.com/prazwal-bns/imageprompt-api/internal/service"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /login.
//
// Bad credentials, unknown accounts and throttled keys all produce the
// same 422 validation error on the email field; there is no 401 or 429
// on this route.
func (h *AuthHandler) Login(c *gin.Context) {
	var input service.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		validationFailed(c, service.NewValidationError("email", service.MsgEmailRequired))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), input, c.ClientIP())
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			validationFailed(c, verr)
			return
		}
		logger.CtxError(c.Request.Context(), "Login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "An unexpected error occurred while processing your request.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User logged in successfully",
		"user":    result.User.Public(),
		"token":   result.Token,
	})
}

// Logout handles DELETE /logout. Only the presenting token is revoked,
// so other sessions of the same user stay live.
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		unauthenticated(c)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), identity.Token); err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			unauthenticated(c)
			return
		}
		logger.CtxError(c.Request.Context(), "Logout failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "An unexpected error occurred while processing your request.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User logged out successfully",
	})
}
