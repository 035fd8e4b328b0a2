package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanderwise-ai/orchestrator/internal/circuitbreaker"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })

	svc := NewService(
		circuitbreaker.NewDatabaseWrapper(sqlx.NewDb(rawDB, "postgres"), zap.NewNop()),
		zap.NewNop(),
		NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour),
	)
	return svc, mock
}

func userColumns() []string {
	return []string{
		"id", "email", "full_name", "password_hash", "preferences",
		"is_active", "created_at", "updated_at", "last_login",
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("taken@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "Taken@Example.com",
		Password: "password123",
		FullName: "Dup User",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "ok@example.com",
		Password: "short",
	})
	assert.Error(t, err)
}

func TestRegisterCreatesUser(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("new@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "New@Example.com",
		Password: "password123",
		FullName: "New User",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestLoginSuccess(t *testing.T) {
	svc, mock := newTestService(t)

	userID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM users WHERE email").
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(userID, "ana@example.com", "Ana Silva", string(hash),
				[]byte("{}"), true, now, now, nil))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET last_login").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tokens, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "ana@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	userCtx, err := svc.JWTManager().ValidateAccessToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, userCtx.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock := newTestService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()

	mock.ExpectQuery("SELECT \\* FROM users WHERE email").
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(uuid.New(), "ana@example.com", "Ana Silva", string(hash),
				[]byte("{}"), true, now, now, nil))

	_, err = svc.Login(context.Background(), &LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong-pass",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT \\* FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRejectsRevoked(t *testing.T) {
	svc, mock := newTestService(t)

	tokenHash := hashToken("some-refresh-token")
	revokedAt := time.Now()

	mock.ExpectQuery("SELECT \\* FROM refresh_tokens").
		WithArgs(tokenHash).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "token_hash", "user_id", "expires_at", "revoked", "revoked_at", "created_at",
		}).AddRow(uuid.New(), tokenHash, uuid.New(),
			time.Now().Add(time.Hour), true, &revokedAt, time.Now()))

	_, err := svc.Refresh(context.Background(), "some-refresh-token")
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
