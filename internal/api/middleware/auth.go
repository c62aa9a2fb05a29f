package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prazwal-bns/imageprompt-api/internal/domain"
	"github.com/prazwal-bns/imageprompt-api/internal/logger"
	"github.com/prazwal-bns/imageprompt-api/internal/service"
)

// identityKey stores the resolved Identity in the Gin context.
const identityKey = "auth.identity"

// Identity is the resolved caller of a request. Token keeps the
// presented plaintext so logout can revoke exactly this session.
type Identity struct {
	User  *domain.User
	Token string
}

// TokenResolver maps a plaintext bearer token to its user.
type TokenResolver interface {
	UserForToken(ctx context.Context, token string) (*domain.User, error)
}

// Authenticate resolves the Authorization header into an Identity when
// one is present. It never aborts: handlers check for the identity
// explicitly and decide whether 401 applies, so authentication state is
// an ordinary value rather than ambient middleware behavior.
func Authenticate(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := resolver.UserForToken(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrUnauthenticated) {
				logger.CtxError(c.Request.Context(), "Token resolution failed: %v", err)
			}
			c.Next()
			return
		}

		c.Set(identityKey, &Identity{User: user, Token: token})
		c.Request = c.Request.WithContext(
			logger.SetUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// CurrentIdentity returns the authenticated caller, if any.
func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
