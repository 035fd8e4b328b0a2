package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userCapture(t *testing.T) (http.Handler, func() (*UserContext, bool)) {
	t.Helper()
	var captured *UserContext
	var present bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, present = GetUserContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return handler, func() (*UserContext, bool) { return captured, present }
}

func TestOptionalWithoutManagerStaysAnonymous(t *testing.T) {
	mw := NewMiddleware(nil, false)
	handler, user := userCapture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plan", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	mw.Optional(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	userCtx, ok := user()
	assert.False(t, ok)
	assert.Nil(t, userCtx)
}

func TestRequireWithoutManagerRejects(t *testing.T) {
	mw := NewMiddleware(nil, false)
	handler, _ := userCapture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	mw.Require(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAttachesValidUser(t *testing.T) {
	jm := NewJWTManager("test-secret", time.Minute, time.Hour)
	user := &User{ID: uuid.New(), Email: "ana@example.com", FullName: "Ana"}
	pair, _, err := jm.GenerateTokenPair(user)
	require.NoError(t, err)

	mw := NewMiddleware(jm, false)
	handler, captured := userCapture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plan", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	mw.Optional(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	userCtx, ok := captured()
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", userCtx.Email)
}
