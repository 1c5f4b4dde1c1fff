package services

import (
	"context"
	"testing"
	"time"

	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newIdentityFixture() (*IdentityService, *fakeUsers, *fakeTokens, *utils.TokenIssuer) {
	users, tokens := newFakeUsers(), newFakeTokens()
	issuer := utils.NewTokenIssuer(config.AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	return NewIdentityService(users, tokens, issuer, bcrypt.MinCost), users, tokens, issuer
}

func registerJane(t *testing.T, svc *IdentityService) string {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Name: "Jane Doe", Username: "jane", Email: "Jane@Example.com", Password: "secret1",
	})
	require.NoError(t, err)
	return u.ID
}

func TestIdentity_RegisterLoginRefresh(t *testing.T) {
	svc, users, tokens, issuer := newIdentityFixture()
	ctx := context.Background()
	id := registerJane(t, svc)

	stored := users.users[id]
	assert.Equal(t, "jane@example.com", stored.Email)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	for _, login := range []string{"jane", "JANE@example.com"} {
		pair, err := svc.Login(ctx, login, "secret1")
		require.NoError(t, err, login)
		claims, err := issuer.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, id, claims.UserID)
		assert.Equal(t, "jane", claims.Username)
	}
	assert.Len(t, tokens.tokens, 2)

	pair, err := svc.Login(ctx, "jane", "secret1")
	require.NoError(t, err)
	access, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := issuer.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
}

func TestIdentity_RegisterDuplicate(t *testing.T) {
	svc, _, _, _ := newIdentityFixture()
	registerJane(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Other", Username: "other", Email: "jane@example.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Register(context.Background(), RegisterInput{Name: "x", Username: "y"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIdentity_LoginRejectsBadCredentials(t *testing.T) {
	svc, _, tokens, _ := newIdentityFixture()
	registerJane(t, svc)

	_, err := svc.Login(context.Background(), "jane", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, tokens.tokens)
}

func TestIdentity_RefreshFailures(t *testing.T) {
	svc, users, _, _ := newIdentityFixture()
	ctx := context.Background()
	id := registerJane(t, svc)

	pair, err := svc.Login(ctx, "jane", "secret1")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// An access token is signed with the other secret.
	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	delete(users.users, id)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnknownRefresh)
}

func TestIdentity_LogoutAll(t *testing.T) {
	svc, _, tokens, _ := newIdentityFixture()
	ctx := context.Background()
	id := registerJane(t, svc)

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, "jane", "secret1")
		require.NoError(t, err)
	}
	require.Len(t, tokens.tokens, 3)
	require.NoError(t, svc.LogoutAll(ctx, id))
	assert.Empty(t, tokens.tokens)
	assert.NoError(t, svc.Logout(ctx, ""))

	u, err := svc.LookupUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane", u.Username)
	_, err = svc.LookupUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
