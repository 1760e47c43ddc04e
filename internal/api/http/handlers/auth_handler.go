package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/signalement-service/internal/api/dto"
	"github.com/spec-kit/signalement-service/internal/auth"
	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/service"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

// AuthHandler exposes registration and login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	outcome, err := h.auth.Register(c.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(outcome.User),
			"auth": dto.AuthResponse{Token: outcome.Token, ExpiresAt: outcome.ExpiresAt},
		},
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	outcome, err := h.auth.Login(c.Context(), req.Identifier, req.Password)
	if err != nil {
		return err
	}
	if !outcome.Accepted {
		return loginRejection(outcome)
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(outcome.User),
			"auth": dto.AuthResponse{Token: outcome.Token, ExpiresAt: outcome.ExpiresAt},
		},
	})
}

// UpdateMe handles PATCH /api/auth/me.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.UpdateUser(c.Context(), principal.User.ID, service.UserPatch{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func loginRejection(outcome *service.LoginOutcome) error {
	switch outcome.Reason {
	case service.ReasonMissingCredentials:
		return apperrors.NewValidationError(service.ReasonMissingCredentials, nil)
	case service.ReasonAccountBlocked:
		return apperrors.NewAccountBlocked(map[string]any{"remaining_attempts": 0})
	default:
		return apperrors.NewDomainError("UNAUTHORIZED", outcome.Reason, http.StatusUnauthorized,
			map[string]any{"remaining_attempts": outcome.RemainingAttempts})
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		TypeUser:      user.TypeUserName,
		LoginAttempts: user.LoginAttempts,
		IsBlocked:     user.IsBlocked,
		BlockedAt:     user.BlockedAt,
		LastLogin:     user.LastLogin,
	}
}
