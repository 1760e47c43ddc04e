package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/signalement-service/internal/auth"
	"github.com/spec-kit/signalement-service/internal/config"
	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/repository"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

// Login rejection reasons.
const (
	ReasonAccountBlocked     = "account-blocked"
	ReasonInvalidCredentials = "invalid-credentials"
	ReasonUserNotFound       = "user-not-found"
	ReasonMissingCredentials = "missing-credentials"
)

// LoginOutcome reports the result of one authentication attempt.
type LoginOutcome struct {
	Accepted          bool
	Reason            string
	RemainingAttempts int
	User              *domain.User
	Token             string
	ExpiresAt         time.Time
}

// AuthService coordinates registration and the login lockout state machine.
// Each account is either Active with attempts in [0, max) or Blocked; the
// counter is mutated only here.
type AuthService struct {
	users       repository.UserRepository
	typeUsers   repository.TypeUserRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	maxAttempts int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TypeUserRepo repository.TypeUserRepository
}

// RegisterInput describes account creation payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	TypeUser string
}

// UserPatch carries partial account updates; nil fields are left untouched.
type UserPatch struct {
	Username *string
	Email    *string
	Password *string
}

// NewAuthService builds the service.
func NewAuthService(cfg *config.Config, deps AuthDependencies) *AuthService {
	maxAttempts := cfg.Security.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &AuthService{
		users:       deps.UserRepo,
		typeUsers:   deps.TypeUserRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
		maxAttempts: maxAttempts,
	}
}

// Register creates a new account, defaulting to the USER role, and issues a
// token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginOutcome, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username, email and password are required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email-already-used", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}
	if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
		return nil, apperrors.NewConflict("username-already-used", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	typeName := input.TypeUser
	if typeName == "" {
		typeName = domain.TypeUserUser
	}
	typeUser, err := s.typeUsers.GetByName(ctx, typeName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("type user", map[string]any{"reason": "type-user-not-found"})
		}
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		TypeUserID:   typeUser.ID,
		TypeUserName: typeUser.Name,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginOutcome{Accepted: true, User: user, Token: token, ExpiresAt: exp, RemainingAttempts: s.maxAttempts}, nil
}

// Login runs one authentication attempt through the lockout state machine.
// Identifier matches username first, then email.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginOutcome, error) {
	if identifier == "" || password == "" {
		return &LoginOutcome{Reason: ReasonMissingCredentials}, nil
	}

	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &LoginOutcome{Reason: ReasonUserNotFound}, nil
		}
		return nil, err
	}

	// Blocked accounts are rejected without touching the counter.
	if user.IsBlocked {
		return &LoginOutcome{Reason: ReasonAccountBlocked, User: user}, nil
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		user.LoginAttempts++
		reason := ReasonInvalidCredentials
		if user.LoginAttempts >= s.maxAttempts {
			now := time.Now()
			user.IsBlocked = true
			user.BlockedAt = &now
			reason = ReasonAccountBlocked
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return &LoginOutcome{
			Reason:            reason,
			RemainingAttempts: s.remaining(user),
			User:              user,
		}, nil
	}

	now := time.Now()
	user.LoginAttempts = 0
	user.IsBlocked = false
	user.BlockedAt = nil
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginOutcome{Accepted: true, User: user, Token: token, ExpiresAt: exp, RemainingAttempts: s.maxAttempts}, nil
}

// UpdateUser applies non-nil patch fields to an account.
func (s *AuthService) UpdateUser(ctx context.Context, id int64, patch UserPatch) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"reason": "user-not-found"})
		}
		return nil, err
	}

	if patch.Email != nil && *patch.Email != user.Email {
		if _, err := s.users.GetByEmail(ctx, *patch.Email); err == nil {
			return nil, apperrors.NewConflict("email-already-used", nil)
		} else if err != pgx.ErrNoRows {
			return nil, err
		}
		user.Email = *patch.Email
	}
	if patch.Username != nil && *patch.Username != user.Username {
		if _, err := s.users.GetByUsername(ctx, *patch.Username); err == nil {
			return nil, apperrors.NewConflict("username-already-used", nil)
		} else if err != pgx.ErrNoRows {
			return nil, err
		}
		user.Username = *patch.Username
	}
	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AssignRole moves an account to the named role.
func (s *AuthService) AssignRole(ctx context.Context, userID int64, typeName string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"reason": "user-not-found"})
		}
		return nil, err
	}
	typeUser, err := s.typeUsers.GetByName(ctx, typeName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("type user", map[string]any{"reason": "type-user-not-found"})
		}
		return nil, err
	}
	user.TypeUserID = typeUser.ID
	user.TypeUserName = typeUser.Name
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Unblock resets the lockout state unconditionally.
func (s *AuthService) Unblock(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"reason": "user-not-found"})
		}
		return nil, err
	}
	user.LoginAttempts = 0
	user.IsBlocked = false
	user.BlockedAt = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all accounts.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) remaining(user *domain.User) int {
	if user.IsBlocked {
		return 0
	}
	remaining := s.maxAttempts - user.LoginAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *AuthService) findByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, identifier)
	if err == pgx.ErrNoRows {
		return s.users.GetByEmail(ctx, identifier)
	}
	return user, err
}
