package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/signalement-service/internal/config"
	"github.com/spec-kit/signalement-service/internal/domain"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

func newAuthFixture(t *testing.T) (*fixture, *AuthService) {
	t.Helper()
	f := newFixture()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 5,
			BcryptCost:            bcrypt.MinCost,
		},
		Security: config.SecurityConfig{MaxLoginAttempts: 3},
	}
	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:     memUserRepo{f.store},
		TypeUserRepo: memTypeUserRepo{f.store},
	})
	return f, svc
}

func registerUser(t *testing.T, svc *AuthService) *domain.User {
	t.Helper()
	outcome, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret",
	})
	require.NoError(t, err)
	require.True(t, outcome.Accepted)
	require.NotEmpty(t, outcome.Token)
	return outcome.User
}

func TestRegisterRejectsDuplicateIdentity(t *testing.T) {
	_, svc := newAuthFixture(t)
	registerUser(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "other",
		Email:    "alice@example.com",
		Password: "x",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	assert.Contains(t, err.Error(), "email-already-used")

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice2@example.com",
		Password: "x",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username-already-used")
}

func TestLoginLockoutBoundary(t *testing.T) {
	f, svc := newAuthFixture(t)
	user := registerUser(t, svc)

	for attempt := 1; attempt <= 2; attempt++ {
		outcome, err := svc.Login(context.Background(), "alice", "wrong")
		require.NoError(t, err)
		assert.False(t, outcome.Accepted)
		assert.Equal(t, ReasonInvalidCredentials, outcome.Reason)
		assert.Equal(t, 3-attempt, outcome.RemainingAttempts)
	}

	// third failure reaches the maximum and blocks
	outcome, err := svc.Login(context.Background(), "alice", "wrong")
	require.NoError(t, err)
	assert.Equal(t, ReasonAccountBlocked, outcome.Reason)
	assert.Equal(t, 0, outcome.RemainingAttempts)

	blocked := f.store.users[user.ID]
	assert.True(t, blocked.IsBlocked)
	assert.Equal(t, 3, blocked.LoginAttempts)
	assert.NotNil(t, blocked.BlockedAt)

	// fourth attempt reports blocked without touching the counter,
	// even with the correct password
	outcome, err = svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, ReasonAccountBlocked, outcome.Reason)
	assert.Equal(t, 3, f.store.users[user.ID].LoginAttempts)
}

func TestUnblockResetsLockoutState(t *testing.T) {
	f, svc := newAuthFixture(t)
	user := registerUser(t, svc)

	for i := 0; i < 3; i++ {
		_, err := svc.Login(context.Background(), "alice", "wrong")
		require.NoError(t, err)
	}
	require.True(t, f.store.users[user.ID].IsBlocked)

	unblocked, err := svc.Unblock(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, unblocked.IsBlocked)
	assert.Equal(t, 0, unblocked.LoginAttempts)
	assert.Nil(t, unblocked.BlockedAt)

	outcome, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.NotEmpty(t, outcome.Token)
	assert.NotNil(t, outcome.User.LastLogin)
}

func TestSuccessfulLoginResetsCounter(t *testing.T) {
	f, svc := newAuthFixture(t)
	user := registerUser(t, svc)

	_, err := svc.Login(context.Background(), "alice", "wrong")
	require.NoError(t, err)
	require.Equal(t, 1, f.store.users[user.ID].LoginAttempts)

	outcome, err := svc.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.Equal(t, 0, f.store.users[user.ID].LoginAttempts)
}

func TestLoginMissingAndUnknownIdentities(t *testing.T) {
	_, svc := newAuthFixture(t)

	outcome, err := svc.Login(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, ReasonMissingCredentials, outcome.Reason)

	outcome, err = svc.Login(context.Background(), "nobody", "x")
	require.NoError(t, err)
	assert.Equal(t, ReasonUserNotFound, outcome.Reason)
}

func TestAssignRole(t *testing.T) {
	_, svc := newAuthFixture(t)
	user := registerUser(t, svc)

	updated, err := svc.AssignRole(context.Background(), user.ID, domain.TypeUserManager)
	require.NoError(t, err)
	assert.Equal(t, domain.TypeUserManager, updated.TypeUserName)

	_, err = svc.AssignRole(context.Background(), user.ID, "SUPERVISOR")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
