package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prazwal-bns/imageprompt-api/internal/service"
)

// msgUnauthenticated is the body of every 401.
const msgUnauthenticated = "User not authenticated. Please login to continue."

// validationFailed writes the 422 field-error envelope.
func validationFailed(c *gin.Context, verr *service.ValidationError) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"message": verr.Messages[0],
		"errors": gin.H{
			verr.Field: verr.Messages,
		},
	})
}

// unauthenticated writes the 401 envelope.
func unauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"message": msgUnauthenticated,
	})
}

// upstreamFailure writes the {error, message, details} envelope used by
// the generation endpoint. Details are replaced outside debug mode for
// the generic internal error so stack detail never leaks in production.
func upstreamFailure(c *gin.Context, status int, kind, message, details string) {
	c.JSON(status, gin.H{
		"error":   kind,
		"message": message,
		"details": details,
	})
}
