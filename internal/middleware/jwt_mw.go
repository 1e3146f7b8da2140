package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"micro_marketplace/internal/model"
	"micro_marketplace/internal/utils"
)

const (
	AuthUserKey = "authUser"
	AuthRoleKey = "authRole"
)

var (
	ErrUnauthenticated = errors.New("not authorized, no token")
	ErrInvalidToken    = errors.New("not authorized, token failed")
)

// IdentityLoader resolves a token subject to a stored identity. A nil user
// with a nil error means the subject does not exist.
type IdentityLoader interface {
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// JWTAuthMiddleware verifies the bearer token and loads the identity it names.
// Malformed, expired and unknown-subject tokens get the same 401 body.
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil, users IdentityLoader, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": ErrUnauthenticated.Error()})
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": ErrInvalidToken.Error()})
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", claims.UserID).Msg("failed to load identity")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": ErrInvalidToken.Error()})
			return
		}

		// Set user information in context
		c.Set(AuthUserKey, user)
		c.Set(AuthRoleKey, user.Role)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// CurrentUser returns the identity loaded by JWTAuthMiddleware.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(AuthUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}
