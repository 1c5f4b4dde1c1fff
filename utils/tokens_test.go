package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princinho/moviecatalog/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(config.AuthConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := testIssuer()

	access, err := issuer.GenerateAccessToken("u1", "jane")
	require.NoError(t, err)
	claims, err := issuer.ValidateAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "jane", claims.Username)
	assert.NotEmpty(t, claims.ID)

	refresh, exp, err := issuer.GenerateRefreshToken("u1", "jane")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)
	_, err = issuer.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, issuer.RefreshTTL())
}

func TestTokenIssuer_KindsAreNotInterchangeable(t *testing.T) {
	issuer := testIssuer()
	access, err := issuer.GenerateAccessToken("u1", "jane")
	require.NoError(t, err)
	refresh, _, err := issuer.GenerateRefreshToken("u1", "jane")
	require.NoError(t, err)

	_, err = issuer.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = issuer.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := testIssuer()
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	access, err := issuer.GenerateAccessToken("u1", "jane")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ValidateAccessToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenIssuer_RejectsOtherAlgorithms(t *testing.T) {
	issuer := testIssuer()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestHashToken(t *testing.T) {
	a := HashToken("abc")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("abc"))
	assert.NotEqual(t, a, HashToken("abd"))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "secret1"))
	assert.Error(t, CheckPassword(hash, "secret2"))
}
