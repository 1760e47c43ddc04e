package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/events"
	"github.com/spec-kit/signalement-service/internal/repository"
	apperrors "github.com/spec-kit/signalement-service/pkg/util"
)

// History comments recorded by the lifecycle engine.
const (
	commentCreation     = "creation"
	commentModification = "modification"
	commentQuickChange  = "quick status change"
)

// SignalementService coordinates report lifecycle workflows. The current
// status is mutated only here, alongside its audit entry, so the newest
// history row always matches the report's status.
type SignalementService struct {
	signalements repository.SignalementRepository
	statuses     repository.StatusRepository
	entries      repository.StatusEntryRepository
	photos       repository.PhotoRepository
	users        repository.UserRepository
	entreprises  repository.EntrepriseRepository
	validations  *ValidationService
	dispatcher   events.Dispatcher
}

// SignalementDependencies bundles collaborators for the lifecycle engine.
type SignalementDependencies struct {
	SignalementRepo repository.SignalementRepository
	StatusRepo      repository.StatusRepository
	StatusEntryRepo repository.StatusEntryRepository
	PhotoRepo       repository.PhotoRepository
	UserRepo        repository.UserRepository
	EntrepriseRepo  repository.EntrepriseRepository
	Validations     *ValidationService
	Dispatcher      events.Dispatcher
}

// SignalementCreateInput describes report submission payload.
type SignalementCreateInput struct {
	UserID       int64
	StatusID     *int64
	EntrepriseID *int64
	Latitude     float64
	Longitude    float64
	Description  string
	SurfaceArea  *float64
	Budget       *float64
	PhotoURL     *string
	UserUID      *string
	PhotoURLs    []string
}

// SignalementPatch carries partial updates; nil fields are left untouched.
type SignalementPatch struct {
	StatusID     *int64
	EntrepriseID *int64
	Latitude     *float64
	Longitude    *float64
	Description  *string
	SurfaceArea  *float64
	Budget       *float64
	PhotoURL     *string
}

// NewSignalementService constructs the service.
func NewSignalementService(deps SignalementDependencies) *SignalementService {
	return &SignalementService{
		signalements: deps.SignalementRepo,
		statuses:     deps.StatusRepo,
		entries:      deps.StatusEntryRepo,
		photos:       deps.PhotoRepo,
		users:        deps.UserRepo,
		entreprises:  deps.EntrepriseRepo,
		validations:  deps.Validations,
		dispatcher:   deps.Dispatcher,
	}
}

// Create persists a new report with its initial status, the "creation"
// audit entry and its PENDING validation.
func (s *SignalementService) Create(ctx context.Context, input SignalementCreateInput) (*domain.Signalement, error) {
	if input.Description == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"reason": "user-not-found"})
		}
		return nil, err
	}

	status, err := s.resolveInitialStatus(ctx, input.StatusID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEntreprise(ctx, input.EntrepriseID); err != nil {
		return nil, err
	}

	sig := &domain.Signalement{
		UserID:       user.ID,
		StatusID:     status.ID,
		StatusName:   status.Name,
		EntrepriseID: input.EntrepriseID,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Description:  input.Description,
		SurfaceArea:  input.SurfaceArea,
		Budget:       input.Budget,
		PhotoURL:     input.PhotoURL,
		UserUID:      input.UserUID,
	}
	if err := s.signalements.Create(ctx, sig); err != nil {
		return nil, err
	}

	entry := &domain.StatusEntry{
		SignalementID: sig.ID,
		StatusID:      status.ID,
		ChangedByID:   &user.ID,
		Comment:       commentCreation,
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	for _, url := range input.PhotoURLs {
		photo := &domain.SignalementPhoto{SignalementID: sig.ID, URL: url}
		if err := s.photos.Create(ctx, photo); err != nil {
			return nil, err
		}
		sig.Photos = append(sig.Photos, *photo)
	}

	if _, err := s.validations.Ensure(ctx, sig.ID); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventSignalementCreated,
		SignalementID: sig.ID,
		ActorID:       &user.ID,
		Payload: events.SignalementCreatedPayload{
			UserID:      user.ID,
			StatusName:  status.Name,
			Description: sig.Description,
		},
	})
	return sig, nil
}

// Update applies non-nil patch fields. A status change is persisted together
// with a "modification" audit entry and triggers a notification event; an
// update to the same status id persists the other fields without new history.
func (s *SignalementService) Update(ctx context.Context, id int64, actorID *int64, patch SignalementPatch) (*domain.Signalement, error) {
	sig, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatusID := sig.StatusID

	if patch.EntrepriseID != nil {
		if err := s.checkEntreprise(ctx, patch.EntrepriseID); err != nil {
			return nil, err
		}
		sig.EntrepriseID = patch.EntrepriseID
	}
	if patch.Latitude != nil {
		sig.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		sig.Longitude = *patch.Longitude
	}
	if patch.Description != nil {
		sig.Description = *patch.Description
	}
	if patch.SurfaceArea != nil {
		sig.SurfaceArea = patch.SurfaceArea
	}
	if patch.Budget != nil {
		sig.Budget = patch.Budget
	}
	if patch.PhotoURL != nil {
		sig.PhotoURL = patch.PhotoURL
	}

	if patch.StatusID != nil && *patch.StatusID != oldStatusID {
		status, err := s.statuses.GetByID(ctx, *patch.StatusID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewNotFound("status", map[string]any{"reason": "status-not-found"})
			}
			return nil, err
		}
		return s.transition(ctx, sig, status, actorID, commentModification)
	}

	if err := s.signalements.Update(ctx, sig); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("signalement", nil)
		}
		return nil, err
	}
	return sig, nil
}

// SetStatus is the status-only fast path. It appends a "quick status change"
// entry when the status actually differs.
func (s *SignalementService) SetStatus(ctx context.Context, id, statusID int64, actorID *int64) (*domain.Signalement, error) {
	sig, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := s.statuses.GetByID(ctx, statusID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("status", map[string]any{"reason": "status-not-found"})
		}
		return nil, err
	}
	if status.ID == sig.StatusID {
		return sig, nil
	}
	return s.transition(ctx, sig, status, actorID, commentQuickChange)
}

// transition persists the status change and its audit row atomically, then
// publishes the status-changed event.
func (s *SignalementService) transition(ctx context.Context, sig *domain.Signalement, to *domain.Status, actorID *int64, comment string) (*domain.Signalement, error) {
	oldStatusName := sig.StatusName
	sig.StatusID = to.ID
	sig.StatusName = to.Name

	entry := &domain.StatusEntry{
		SignalementID: sig.ID,
		StatusID:      to.ID,
		ChangedByID:   actorID,
		Comment:       comment,
	}
	if err := s.signalements.SaveStatusTransition(ctx, sig, entry); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("signalement", nil)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventSignalementStatusChanged,
		SignalementID: sig.ID,
		ActorID:       actorID,
		Payload: events.SignalementStatusChangedPayload{
			OldStatus:   oldStatusName,
			NewStatus:   to.Name,
			Comment:     comment,
			Description: sig.Description,
			UserUID:     sig.UserUID,
		},
	})
	return sig, nil
}

// Delete cascades the report with its validation, both audit trails and its
// photos.
func (s *SignalementService) Delete(ctx context.Context, id int64) error {
	if err := s.signalements.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("signalement", nil)
		}
		return err
	}
	return nil
}

// Get returns a report with its photos loaded.
func (s *SignalementService) Get(ctx context.Context, id int64) (*domain.Signalement, error) {
	sig, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	photos, err := s.photos.ListBySignalement(ctx, id)
	if err != nil {
		return nil, err
	}
	sig.Photos = photos
	return sig, nil
}

// List returns all reports.
func (s *SignalementService) List(ctx context.Context) ([]domain.Signalement, error) {
	return s.signalements.List(ctx)
}

// ListByValidationStatus filters on the validation workflow state; PENDING
// also matches reports with no validation row yet.
func (s *SignalementService) ListByValidationStatus(ctx context.Context, statusName string) ([]domain.Signalement, error) {
	return s.signalements.ListByValidationStatusName(ctx, statusName)
}

// History returns the audit trail oldest-first.
func (s *SignalementService) History(ctx context.Context, id int64) ([]domain.StatusEntry, error) {
	if _, err := s.getExisting(ctx, id); err != nil {
		return nil, err
	}
	return s.entries.ListBySignalement(ctx, id)
}

// AddPhotos appends photo URL rows to a report.
func (s *SignalementService) AddPhotos(ctx context.Context, id int64, urls []string) ([]domain.SignalementPhoto, error) {
	if _, err := s.getExisting(ctx, id); err != nil {
		return nil, err
	}
	result := make([]domain.SignalementPhoto, 0, len(urls))
	for _, url := range urls {
		photo := &domain.SignalementPhoto{SignalementID: id, URL: url}
		if err := s.photos.Create(ctx, photo); err != nil {
			return nil, err
		}
		result = append(result, *photo)
	}
	return result, nil
}

func (s *SignalementService) getExisting(ctx context.Context, id int64) (*domain.Signalement, error) {
	sig, err := s.signalements.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("signalement", nil)
		}
		return nil, err
	}
	return sig, nil
}

func (s *SignalementService) resolveInitialStatus(ctx context.Context, statusID *int64) (*domain.Status, error) {
	if statusID != nil {
		status, err := s.statuses.GetByID(ctx, *statusID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewNotFound("status", map[string]any{"reason": "status-not-found"})
			}
			return nil, err
		}
		return status, nil
	}
	status, err := s.statuses.GetByName(ctx, domain.StatusNouveau)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("status", map[string]any{"reason": "status-not-found"})
		}
		return nil, err
	}
	return status, nil
}

// checkEntreprise verifies an assigned company exists before the row is
// written, so the FK violation never reaches the client as a 500.
func (s *SignalementService) checkEntreprise(ctx context.Context, entrepriseID *int64) error {
	if entrepriseID == nil {
		return nil
	}
	if _, err := s.entreprises.GetByID(ctx, *entrepriseID); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("entreprise", map[string]any{"reason": "entreprise-not-found"})
		}
		return err
	}
	return nil
}

func (s *SignalementService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
