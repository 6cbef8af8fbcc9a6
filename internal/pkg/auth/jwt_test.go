package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarnote/backend/internal/app/models"
)

func testJWTService(accessExp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  accessExp,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "test",
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := testJWTService(time.Hour)
	user := &models.User{ID: 42, Email: "student@example.com"}

	access, refresh, expiresIn, refreshExpiresIn, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, 3600, expiresIn)
	assert.Equal(t, 86400, refreshExpiresIn)

	claims, err := svc.ValidateAndExtractClaims(access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "student@example.com", claims.Email)
	assert.Equal(t, "test", claims.Issuer)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := testJWTService(-time.Minute)
	user := &models.User{ID: 1, Email: "a@x.com"}

	access, _, _, _, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(access)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := testJWTService(time.Hour)
	other := NewJWTService(JWTConfig{SecretKey: "different", AccessTokenExp: time.Hour, RefreshTokenExp: time.Hour})
	user := &models.User{ID: 1, Email: "a@x.com"}

	access, _, _, _, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)

	_, err = other.ValidateToken(access)
	assert.Error(t, err)
}

func TestValidateAndExtractClaimsEmpty(t *testing.T) {
	svc := testJWTService(time.Hour)
	_, err := svc.ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	token, err = ExtractBearerToken("abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
