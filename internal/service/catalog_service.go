package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/repository"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

// CatalogService manages the status, validation-status, role and entreprise
// catalogs. The seeded rows are never deleted by normal flow; extra statuses
// and entreprises may be added at runtime.
type CatalogService struct {
	statuses         repository.StatusRepository
	validationStatus repository.ValidationStatusRepository
	typeUsers        repository.TypeUserRepository
	entreprises      repository.EntrepriseRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(statuses repository.StatusRepository, validationStatus repository.ValidationStatusRepository, typeUsers repository.TypeUserRepository, entreprises repository.EntrepriseRepository) *CatalogService {
	return &CatalogService{
		statuses:         statuses,
		validationStatus: validationStatus,
		typeUsers:        typeUsers,
		entreprises:      entreprises,
	}
}

// EntrepriseInput carries entreprise catalog writes.
type EntrepriseInput struct {
	Name    string
	Address *string
	Phone   *string
	Email   *string
}

// CreateStatus adds a lifecycle status.
func (s *CatalogService) CreateStatus(ctx context.Context, name string, description *string) (*domain.Status, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if _, err := s.statuses.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewConflict("status name already used", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}
	status := &domain.Status{Name: name, Description: description}
	if err := s.statuses.Create(ctx, status); err != nil {
		return nil, err
	}
	return status, nil
}

// UpdateStatus renames or re-describes a lifecycle status.
func (s *CatalogService) UpdateStatus(ctx context.Context, id int64, name string, description *string) (*domain.Status, error) {
	status, err := s.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		status.Name = name
	}
	if description != nil {
		status.Description = description
	}
	if err := s.statuses.Update(ctx, status); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("status", nil)
		}
		return nil, err
	}
	return status, nil
}

// GetStatus fetches one lifecycle status.
func (s *CatalogService) GetStatus(ctx context.Context, id int64) (*domain.Status, error) {
	status, err := s.statuses.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("status", nil)
		}
		return nil, err
	}
	return status, nil
}

// ListStatuses returns the lifecycle catalog.
func (s *CatalogService) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	return s.statuses.List(ctx)
}

// DeleteStatus removes a lifecycle status; referenced rows keep it alive via
// the FK and surface as a conflict upstream.
func (s *CatalogService) DeleteStatus(ctx context.Context, id int64) error {
	if err := s.statuses.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("status", nil)
		}
		return err
	}
	return nil
}

// CreateEntreprise adds a contracted company.
func (s *CatalogService) CreateEntreprise(ctx context.Context, input EntrepriseInput) (*domain.Entreprise, error) {
	if input.Name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if _, err := s.entreprises.GetByName(ctx, input.Name); err == nil {
		return nil, apperrors.NewConflict("entreprise name already used", nil)
	} else if err != pgx.ErrNoRows {
		return nil, err
	}
	entreprise := &domain.Entreprise{
		Name:    input.Name,
		Address: input.Address,
		Phone:   input.Phone,
		Email:   input.Email,
	}
	if err := s.entreprises.Create(ctx, entreprise); err != nil {
		return nil, err
	}
	return entreprise, nil
}

// UpdateEntreprise applies non-empty input fields to a company.
func (s *CatalogService) UpdateEntreprise(ctx context.Context, id int64, input EntrepriseInput) (*domain.Entreprise, error) {
	entreprise, err := s.GetEntreprise(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != "" {
		entreprise.Name = input.Name
	}
	if input.Address != nil {
		entreprise.Address = input.Address
	}
	if input.Phone != nil {
		entreprise.Phone = input.Phone
	}
	if input.Email != nil {
		entreprise.Email = input.Email
	}
	if err := s.entreprises.Update(ctx, entreprise); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("entreprise", nil)
		}
		return nil, err
	}
	return entreprise, nil
}

// GetEntreprise fetches one company.
func (s *CatalogService) GetEntreprise(ctx context.Context, id int64) (*domain.Entreprise, error) {
	entreprise, err := s.entreprises.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("entreprise", nil)
		}
		return nil, err
	}
	return entreprise, nil
}

// ListEntreprises returns the company catalog.
func (s *CatalogService) ListEntreprises(ctx context.Context) ([]domain.Entreprise, error) {
	return s.entreprises.List(ctx)
}

// DeleteEntreprise removes a company; assigned signalements keep it alive via
// the FK and surface as a conflict upstream.
func (s *CatalogService) DeleteEntreprise(ctx context.Context, id int64) error {
	if err := s.entreprises.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("entreprise", nil)
		}
		return err
	}
	return nil
}

// ListValidationStatuses returns the validation catalog.
func (s *CatalogService) ListValidationStatuses(ctx context.Context) ([]domain.ValidationStatus, error) {
	return s.validationStatus.List(ctx)
}

// ListTypeUsers returns the role catalog.
func (s *CatalogService) ListTypeUsers(ctx context.Context) ([]domain.TypeUser, error) {
	return s.typeUsers.List(ctx)
}
