package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPairRoundTrip(t *testing.T) {
	mgr := NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
	user := &User{
		ID:       uuid.New(),
		Email:    "ana@example.com",
		FullName: "Ana Silva",
	}

	pair, refreshHash, err := mgr.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, 900, pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, refreshHash, hashToken(pair.RefreshToken))

	userCtx, err := mgr.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userCtx.UserID)
	assert.Equal(t, user.Email, userCtx.Email)
	assert.Equal(t, user.FullName, userCtx.FullName)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	mgr := NewJWTManager("secret-a", 15*time.Minute, 24*time.Hour)
	other := NewJWTManager("secret-b", 15*time.Minute, 24*time.Hour)

	pair, _, err := mgr.GenerateTokenPair(&User{ID: uuid.New(), Email: "a@b.c"})
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	mgr := NewJWTManager("secret", -time.Minute, 24*time.Hour)

	pair, _, err := mgr.GenerateTokenPair(&User{ID: uuid.New(), Email: "a@b.c"})
	require.NoError(t, err)

	_, err = mgr.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = ExtractBearerToken("abc123")
	assert.Error(t, err)

	_, err = ExtractBearerToken("")
	assert.Error(t, err)
}
