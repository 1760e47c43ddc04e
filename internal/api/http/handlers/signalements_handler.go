package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/signalement-service/internal/api/dto"
	"github.com/spec-kit/signalement-service/internal/auth"
	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/service"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

// SignalementsHandler manages report endpoints.
type SignalementsHandler struct {
	signalements *service.SignalementService
	validations  *service.ValidationService
}

// NewSignalementsHandler constructs handler.
func NewSignalementsHandler(signalements *service.SignalementService, validations *service.ValidationService) *SignalementsHandler {
	return &SignalementsHandler{signalements: signalements, validations: validations}
}

// Create POST /api/signalements.
func (h *SignalementsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateSignalementRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	sig, err := h.signalements.Create(c.Context(), service.SignalementCreateInput{
		UserID:       principal.User.ID,
		StatusID:     req.StatusID,
		EntrepriseID: req.EntrepriseID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Description:  req.Description,
		SurfaceArea:  req.SurfaceArea,
		Budget:       req.Budget,
		PhotoURL:     req.PhotoURL,
		UserUID:      req.UserUID,
		PhotoURLs:    req.PhotoURLs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": signalementResponse(sig)})
}

// List GET /api/signalements with optional ?validationStatus= filter.
func (h *SignalementsHandler) List(c *fiber.Ctx) error {
	var (
		sigs []domain.Signalement
		err  error
	)
	if statusName := c.Query("validationStatus"); statusName != "" {
		sigs, err = h.signalements.ListByValidationStatus(c.Context(), statusName)
	} else {
		sigs, err = h.signalements.List(c.Context())
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": signalementResponses(sigs)})
}

// ListPendingValidation GET /api/signalements/pending-validation.
func (h *SignalementsHandler) ListPendingValidation(c *fiber.Ctx) error {
	sigs, err := h.signalements.ListByValidationStatus(c.Context(), domain.ValidationPending)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": signalementResponses(sigs)})
}

// Get GET /api/signalements/:id.
func (h *SignalementsHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	sig, err := h.signalements.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": signalementResponse(sig)})
}

// Update PATCH /api/signalements/:id.
func (h *SignalementsHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateSignalementRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	sig, err := h.signalements.Update(c.Context(), id, actorID(c), service.SignalementPatch{
		StatusID:     req.StatusID,
		EntrepriseID: req.EntrepriseID,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Description:  req.Description,
		SurfaceArea:  req.SurfaceArea,
		Budget:       req.Budget,
		PhotoURL:     req.PhotoURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": signalementResponse(sig)})
}

// SetStatus PUT /api/signalements/:id/status.
func (h *SignalementsHandler) SetStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	sig, err := h.signalements.SetStatus(c.Context(), id, req.StatusID, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": signalementResponse(sig)})
}

// Delete DELETE /api/signalements/:id.
func (h *SignalementsHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.signalements.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// History GET /api/signalements/:id/history.
func (h *SignalementsHandler) History(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	entries, err := h.signalements.History(c.Context(), id)
	if err != nil {
		return err
	}
	items := make([]dto.StatusEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, statusEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddPhotos POST /api/signalements/:id/photos.
func (h *SignalementsHandler) AddPhotos(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.AddPhotosRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.URLs) == 0 {
		return apperrors.NewValidationError("urls required", nil)
	}

	photos, err := h.signalements.AddPhotos(c.Context(), id, req.URLs)
	if err != nil {
		return err
	}
	items := make([]dto.PhotoResponse, 0, len(photos))
	for i := range photos {
		items = append(items, photoResponse(&photos[i]))
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": items})
}

// GetValidation GET /api/signalements/:id/validation.
func (h *SignalementsHandler) GetValidation(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	validation, err := h.validations.GetBySignalement(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": validationResponse(validation)})
}

// Validate PUT /api/signalements/:id/validate.
func (h *SignalementsHandler) Validate(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req dto.ChangeValidationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	validation, err := h.validations.ChangeStatus(c.Context(), id, req.StatusID, actorID(c), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": validationResponse(validation)})
}

// ValidationHistory GET /api/signalements/:id/validation/history.
func (h *SignalementsHandler) ValidationHistory(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	entries, err := h.validations.History(c.Context(), id)
	if err != nil {
		return err
	}
	items := make([]dto.ValidationHistoryResponse, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		items = append(items, dto.ValidationHistoryResponse{
			ID:         entry.ID,
			FromStatus: entry.FromStatusName,
			ToStatus:   entry.ToStatusName,
			ChangedBy:  entry.ChangedByID,
			ChangedAt:  entry.ChangedAt,
			Note:       entry.Note,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid id", nil)
	}
	return id, nil
}

func actorID(c *fiber.Ctx) *int64 {
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		return &principal.User.ID
	}
	return nil
}

func signalementResponse(sig *domain.Signalement) dto.SignalementResponse {
	resp := dto.SignalementResponse{
		ID:           sig.ID,
		UserID:       sig.UserID,
		Status:       sig.StatusName,
		StatusID:     sig.StatusID,
		EntrepriseID: sig.EntrepriseID,
		Latitude:     sig.Latitude,
		Longitude:    sig.Longitude,
		Description:  sig.Description,
		SurfaceArea:  sig.SurfaceArea,
		Budget:       sig.Budget,
		PhotoURL:     sig.PhotoURL,
		MirrorDocID:  sig.MirrorDocID,
		UserUID:      sig.UserUID,
		CreatedAt:    sig.CreatedAt,
	}
	for i := range sig.Photos {
		resp.Photos = append(resp.Photos, photoResponse(&sig.Photos[i]))
	}
	return resp
}

func signalementResponses(sigs []domain.Signalement) []dto.SignalementResponse {
	items := make([]dto.SignalementResponse, 0, len(sigs))
	for i := range sigs {
		items = append(items, signalementResponse(&sigs[i]))
	}
	return items
}

func photoResponse(photo *domain.SignalementPhoto) dto.PhotoResponse {
	return dto.PhotoResponse{ID: photo.ID, URL: photo.URL, CreatedAt: photo.CreatedAt}
}

func statusEntryResponse(entry *domain.StatusEntry) dto.StatusEntryResponse {
	return dto.StatusEntryResponse{
		ID:         entry.ID,
		Status:     entry.StatusName,
		StatusID:   entry.StatusID,
		ChangedBy:  entry.ChangedByID,
		DateStatus: entry.DateStatus,
		Comment:    entry.Comment,
	}
}

func validationResponse(validation *domain.Validation) dto.ValidationResponse {
	return dto.ValidationResponse{
		ID:            validation.ID,
		SignalementID: validation.SignalementID,
		Status:        validation.StatusName,
		StatusID:      validation.StatusID,
		ValidatedBy:   validation.ValidatedByID,
		ValidatedAt:   validation.ValidatedAt,
		Note:          validation.Note,
	}
}
