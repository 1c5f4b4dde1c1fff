package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/dto"
	"github.com/princinho/moviecatalog/middleware"
	"github.com/princinho/moviecatalog/models"
	"github.com/princinho/moviecatalog/services"
)

const (
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/auth"
)

// Identity is the part of services.IdentityService the auth routes use.
type Identity interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, login, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
	LookupUser(ctx context.Context, userID string) (*models.User, error)
}

func setRefreshCookie(c *gin.Context, cfg config.AuthConfig, token string, maxAge time.Duration) {
	sameSite := http.SameSiteLaxMode
	if cfg.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Domain:   cfg.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: sameSite,
	})
}

func clearRefreshCookie(c *gin.Context, cfg config.AuthConfig) {
	setRefreshCookie(c, cfg, "", -time.Second)
}

// refreshTokenFrom prefers the body over the cookie.
func refreshTokenFrom(c *gin.Context) string {
	var body dto.RefreshDTO
	_ = c.ShouldBindJSON(&body)
	if body.RefreshToken != "" {
		return body.RefreshToken
	}
	token, _ := c.Cookie(refreshCookieName)
	return token
}

func Register(identity Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			bindError(c, err)
			return
		}

		user, err := identity.Register(c.Request.Context(), services.RegisterInput{
			Name:     body.Name,
			Username: body.Username,
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "userId": user.ID})
	}
}

func Login(identity Identity, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			bindError(c, err)
			return
		}

		pair, err := identity.Login(c.Request.Context(), body.Login(), body.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		setRefreshCookie(c, cfg, pair.RefreshToken, cfg.RefreshTTL)
		c.JSON(http.StatusOK, pair)
	}
}

func Refresh(identity Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := refreshTokenFrom(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
			return
		}

		access, err := identity.Refresh(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accessToken": access})
	}
}

// Logout always succeeds; revoking the stored token is best effort.
func Logout(identity Identity, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := refreshTokenFrom(c)
		clearRefreshCookie(c, cfg)
		if err := identity.Logout(c.Request.Context(), token); err != nil {
			_ = c.Error(err)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}

func LogoutAll(identity Identity, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := identity.LogoutAll(c.Request.Context(), middleware.UserID(c)); err != nil {
			respondError(c, err)
			return
		}
		clearRefreshCookie(c, cfg)
		c.JSON(http.StatusOK, gin.H{"message": "All sessions revoked"})
	}
}

func Me(identity Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := identity.LookupUser(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"name":     user.Name,
			"username": user.Username,
			"email":    user.Email,
		}})
	}
}
