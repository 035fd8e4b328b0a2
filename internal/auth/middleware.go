package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// ContextKey is the key type for context values
type ContextKey string

// UserContextKey is the context key for user information
const UserContextKey ContextKey = "user"

// Middleware provides HTTP authentication middleware
type Middleware struct {
	jwtManager *JWTManager
	skipAuth   bool // for development/testing
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(jwtManager *JWTManager, skipAuth bool) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		skipAuth:   skipAuth,
	}
}

// Require rejects requests without a valid bearer token.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipAuth {
			ctx := context.WithValue(r.Context(), UserContextKey, devUserContext())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		userCtx, err := m.authenticate(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}`))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches a user context when a valid token is present but lets
// anonymous requests through. Plan requests work for guests; persistence
// only happens for authenticated users.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipAuth {
			ctx := context.WithValue(r.Context(), UserContextKey, devUserContext())
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if userCtx, err := m.authenticate(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), UserContextKey, userCtx))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) authenticate(r *http.Request) (*UserContext, error) {
	// No token manager means no way to validate anything; every request
	// stays anonymous.
	if m.jwtManager == nil {
		return nil, ErrInvalidToken
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		// WebSocket clients can't set headers from the browser API.
		if token := r.URL.Query().Get("access_token"); token != "" {
			return m.jwtManager.ValidateAccessToken(token)
		}
		return nil, ErrInvalidToken
	}
	token, err := ExtractBearerToken(authHeader)
	if err != nil {
		return nil, err
	}
	return m.jwtManager.ValidateAccessToken(token)
}

func devUserContext() *UserContext {
	return &UserContext{
		UserID:   uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Email:    "dev@wanderwise.local",
		FullName: "Dev User",
	}
}

// GetUserContext extracts user context from context. The second return is
// false for anonymous requests.
func GetUserContext(ctx context.Context) (*UserContext, bool) {
	userCtx, ok := ctx.Value(UserContextKey).(*UserContext)
	return userCtx, ok
}
