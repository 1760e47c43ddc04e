package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/signalement-service/internal/api/dto"
	"github.com/spec-kit/signalement-service/internal/service"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

// AdminHandler exposes account administration and the reconciliation
// triggers.
type AdminHandler struct {
	auth *service.AuthService
	sync *service.SyncService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService, syncService *service.SyncService) *AdminHandler {
	return &AdminHandler{auth: authService, sync: syncService}
}

// ListUsers GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.auth.ListUsers(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateUser POST /api/admin/users.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.AdminCreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	outcome, err := h.auth.Register(c.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		TypeUser: req.TypeUser,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(outcome.User)})
}

// AssignRole PUT /api/admin/users/:id/role.
func (h *AdminHandler) AssignRole(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TypeUser == "" {
		return apperrors.NewValidationError("type_user required", nil)
	}

	user, err := h.auth.AssignRole(c.Context(), id, req.TypeUser)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Unblock POST /api/admin/users/:id/unblock.
func (h *AdminHandler) Unblock(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Unblock(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// PullSignalements POST /api/admin/mirror/sync/signalements.
func (h *AdminHandler) PullSignalements(c *fiber.Ctx) error {
	result, err := h.sync.PullSignalements(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// PushSignalements POST /api/admin/mirror/sync/signalements/reverse.
func (h *AdminHandler) PushSignalements(c *fiber.Ctx) error {
	result, err := h.sync.PushSignalements(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// PushUsers POST /api/admin/mirror/sync/users.
func (h *AdminHandler) PushUsers(c *fiber.Ctx) error {
	result, err := h.sync.PushUsers(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
