package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/metrics"
	"github.com/princinho/moviecatalog/models"
	"github.com/princinho/moviecatalog/services"
	"github.com/princinho/moviecatalog/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers struct {
	users map[string]models.User
	err   error
}

func (s *stubUsers) LookupUser(_ context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return &u, nil
}

func authRouter(t *testing.T) (*gin.Engine, *utils.TokenIssuer) {
	t.Helper()
	r, issuer, _ := authRouterWithUsers(t)
	return r, issuer
}

func authRouterWithUsers(t *testing.T) (*gin.Engine, *utils.TokenIssuer, *stubUsers) {
	t.Helper()
	issuer := utils.NewTokenIssuer(config.AuthConfig{
		AccessSecret: "a", RefreshSecret: "r", AccessTTL: time.Minute, RefreshTTL: time.Hour,
	})
	users := &stubUsers{users: map[string]models.User{"u1": {ID: "u1", Username: "jane"}}}

	r := gin.New()
	echo := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "username": c.GetString(ContextUsername)})
	}
	r.GET("/private", AuthMiddleware(issuer, users), echo)
	r.GET("/public", OptionalAuthMiddleware(issuer, users), echo)
	return r, issuer, users
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r, issuer := authRouter(t)
	valid, err := issuer.GenerateAccessToken("u1", "jane")
	require.NoError(t, err)
	ghost, err := issuer.GenerateAccessToken("u404", "ghost")
	require.NoError(t, err)
	refresh, _, err := issuer.GenerateRefreshToken("u1", "jane")
	require.NoError(t, err)

	w := get(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"missing token"}`, w.Body.String())

	w = get(r, "/private", valid)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1","username":"jane"}`, w.Body.String())

	w = get(r, "/private", refresh)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")

	w = get(r, "/private", ghost)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"user not found"}`, w.Body.String())
}

func TestAuthMiddleware_LookupOutageIsServerError(t *testing.T) {
	r, issuer, users := authRouterWithUsers(t)
	valid, err := issuer.GenerateAccessToken("u1", "jane")
	require.NoError(t, err)
	users.err = errors.New("server selection error: context deadline exceeded")

	for _, path := range []string{"/private", "/public"} {
		w := get(r, path, valid)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String(), path)
	}

	users.err = nil
	w := get(r, "/private", valid)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	r, _ := authRouter(t)
	old := utils.NewTokenIssuer(config.AuthConfig{
		AccessSecret: "a", RefreshSecret: "r", AccessTTL: -time.Minute, RefreshTTL: time.Hour,
	})
	expired, err := old.GenerateAccessToken("u1", "jane")
	require.NoError(t, err)

	w := get(r, "/private", expired)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestOptionalAuthMiddleware(t *testing.T) {
	r, issuer := authRouter(t)

	w := get(r, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"","username":""}`, w.Body.String())

	valid, err := issuer.GenerateAccessToken("u1", "jane")
	require.NoError(t, err)
	w = get(r, "/public", valid)
	assert.JSONEq(t, `{"user":"u1","username":"jane"}`, w.Body.String())

	w = get(r, "/public", "garbage")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit_LocalFallback(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Prefix:         "rl:test",
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
	}
	r := gin.New()
	r.POST("/auth/login", RateLimit(cfg, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(metrics.RateLimited.WithLabelValues("local"))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimited.WithLabelValues("local")))
}

func TestRateLimit_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(config.RateLimitConfig{Enabled: false, Capacity: 1}, nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 5; i++ {
		w := get(r, "/x", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/movies/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/movies/:id", "404")
	before := testutil.ToFloat64(counter)
	get(r, "/api/movies/abc", "")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestNewRedisClient_NoAddr(t *testing.T) {
	assert.Nil(t, NewRedisClient(context.Background(), config.RedisConfig{}))
}
