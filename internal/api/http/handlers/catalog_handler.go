package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/signalement-service/internal/api/dto"
	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/service"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

// CatalogHandler exposes the status, validation-status and role catalogs.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListStatuses GET /api/statuses.
func (h *CatalogHandler) ListStatuses(c *fiber.Ctx) error {
	statuses, err := h.catalog.ListStatuses(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.StatusResponse, 0, len(statuses))
	for i := range statuses {
		items = append(items, statusResponse(&statuses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateStatus POST /api/statuses.
func (h *CatalogHandler) CreateStatus(c *fiber.Ctx) error {
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.catalog.CreateStatus(c.Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": statusResponse(status)})
}

// UpdateStatus PUT /api/statuses/:id.
func (h *CatalogHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.catalog.UpdateStatus(c.Context(), id, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statusResponse(status)})
}

// DeleteStatus DELETE /api/statuses/:id.
func (h *CatalogHandler) DeleteStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteStatus(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListEntreprises GET /api/entreprises.
func (h *CatalogHandler) ListEntreprises(c *fiber.Ctx) error {
	entreprises, err := h.catalog.ListEntreprises(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.EntrepriseResponse, 0, len(entreprises))
	for i := range entreprises {
		items = append(items, entrepriseResponse(&entreprises[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetEntreprise GET /api/entreprises/:id.
func (h *CatalogHandler) GetEntreprise(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	entreprise, err := h.catalog.GetEntreprise(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entrepriseResponse(entreprise)})
}

// CreateEntreprise POST /api/entreprises.
func (h *CatalogHandler) CreateEntreprise(c *fiber.Ctx) error {
	var req dto.EntrepriseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entreprise, err := h.catalog.CreateEntreprise(c.Context(), entrepriseInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": entrepriseResponse(entreprise)})
}

// UpdateEntreprise PUT /api/entreprises/:id.
func (h *CatalogHandler) UpdateEntreprise(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.EntrepriseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entreprise, err := h.catalog.UpdateEntreprise(c.Context(), id, entrepriseInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entrepriseResponse(entreprise)})
}

// DeleteEntreprise DELETE /api/entreprises/:id.
func (h *CatalogHandler) DeleteEntreprise(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteEntreprise(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListValidationStatuses GET /api/validation-statuses.
func (h *CatalogHandler) ListValidationStatuses(c *fiber.Ctx) error {
	statuses, err := h.catalog.ListValidationStatuses(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.StatusResponse, 0, len(statuses))
	for i := range statuses {
		items = append(items, dto.StatusResponse{
			ID:          statuses[i].ID,
			Name:        statuses[i].Name,
			Description: statuses[i].Description,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListTypeUsers GET /api/type-users.
func (h *CatalogHandler) ListTypeUsers(c *fiber.Ctx) error {
	typeUsers, err := h.catalog.ListTypeUsers(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TypeUserResponse, 0, len(typeUsers))
	for i := range typeUsers {
		items = append(items, dto.TypeUserResponse{ID: typeUsers[i].ID, Name: typeUsers[i].Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

func statusResponse(status *domain.Status) dto.StatusResponse {
	return dto.StatusResponse{ID: status.ID, Name: status.Name, Description: status.Description}
}

func entrepriseInput(req dto.EntrepriseRequest) service.EntrepriseInput {
	return service.EntrepriseInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	}
}

func entrepriseResponse(entreprise *domain.Entreprise) dto.EntrepriseResponse {
	return dto.EntrepriseResponse{
		ID:      entreprise.ID,
		Name:    entreprise.Name,
		Address: entreprise.Address,
		Phone:   entreprise.Phone,
		Email:   entreprise.Email,
	}
}
