package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/logging"
	"github.com/princinho/moviecatalog/models"
	"github.com/princinho/moviecatalog/services"
	"github.com/princinho/moviecatalog/utils"
)

const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*utils.Claims, error)
}

// UserLookup resolves the token subject. A deleted account must surface as
// services.ErrUserNotFound; any other error is treated as a server fault.
type UserLookup interface {
	LookupUser(ctx context.Context, userID string) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(tokens AccessTokenValidator, users UserLookup) gin.HandlerFunc {
	return authenticate(tokens, users, true)
}

// OptionalAuthMiddleware lets anonymous requests through but still rejects
// a token that is present and invalid.
func OptionalAuthMiddleware(tokens AccessTokenValidator, users UserLookup) gin.HandlerFunc {
	return authenticate(tokens, users, false)
}

func authenticate(tokens AccessTokenValidator, users UserLookup, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
				return
			}
			c.Next()
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := tokens.ValidateAccessToken(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token expired", "code": "TOKEN_EXPIRED"})
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid token", "code": "INVALID_TOKEN"})
			return
		}

		user, err := users.LookupUser(c.Request.Context(), claims.UserID)
		if errors.Is(err, services.ErrUserNotFound) {
			logging.Ctx(c.Request.Context()).Debug().Str("user_id", claims.UserID).Msg("token user no longer exists")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			logging.Ctx(c.Request.Context()).Error().Err(err).Str("user_id", claims.UserID).Msg("token user lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
