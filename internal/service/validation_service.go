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

// ValidationService owns the 1:1 approve/reject record per report and its
// append-only history.
type ValidationService struct {
	validations      repository.ValidationRepository
	history          repository.ValidationHistoryRepository
	validationStatus repository.ValidationStatusRepository
	signalements     repository.SignalementRepository
	users            repository.UserRepository
	dispatcher       events.Dispatcher
}

// ValidationDependencies bundles collaborators for the validation engine.
type ValidationDependencies struct {
	ValidationRepo       repository.ValidationRepository
	HistoryRepo          repository.ValidationHistoryRepository
	ValidationStatusRepo repository.ValidationStatusRepository
	SignalementRepo      repository.SignalementRepository
	UserRepo             repository.UserRepository
	Dispatcher           events.Dispatcher
}

// NewValidationService constructs the service.
func NewValidationService(deps ValidationDependencies) *ValidationService {
	return &ValidationService{
		validations:      deps.ValidationRepo,
		history:          deps.HistoryRepo,
		validationStatus: deps.ValidationStatusRepo,
		signalements:     deps.SignalementRepo,
		users:            deps.UserRepo,
		dispatcher:       deps.Dispatcher,
	}
}

// Ensure returns the existing validation for the report or creates one in
// PENDING. Concurrent callers race on the unique signalement FK; the loser
// re-fetches instead of failing.
func (s *ValidationService) Ensure(ctx context.Context, signalementID int64) (*domain.Validation, error) {
	validation, err := s.validations.GetBySignalement(ctx, signalementID)
	if err == nil {
		return validation, nil
	}
	if err != pgx.ErrNoRows {
		return nil, err
	}

	pending, err := s.validationStatus.GetByName(ctx, domain.ValidationPending)
	if err != nil {
		return nil, err
	}
	validation = &domain.Validation{
		SignalementID: signalementID,
		StatusID:      pending.ID,
		StatusName:    pending.Name,
	}
	if err := s.validations.Create(ctx, validation); err != nil {
		if err == repository.ErrDuplicateValidation {
			return s.validations.GetBySignalement(ctx, signalementID)
		}
		return nil, err
	}
	return validation, nil
}

// ChangeStatus moves the report's validation to the target status and
// appends the history row in the same transaction. An unknown changer id is
// tolerated and recorded as null.
func (s *ValidationService) ChangeStatus(ctx context.Context, signalementID, newStatusID int64, changedByUserID *int64, note *string) (*domain.Validation, error) {
	if _, err := s.signalements.GetByID(ctx, signalementID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("signalement", map[string]any{"reason": "signalement-not-found"})
		}
		return nil, err
	}

	validation, err := s.Ensure(ctx, signalementID)
	if err != nil {
		return nil, err
	}

	to, err := s.validationStatus.GetByID(ctx, newStatusID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("validation status", map[string]any{"reason": "status-not-found"})
		}
		return nil, err
	}

	changer := s.resolveChanger(ctx, changedByUserID)

	// Ensure always persists the PENDING default, so the current state is
	// the from side even on the first explicit transition.
	fromStatusID := validation.StatusID
	fromStatusName := validation.StatusName
	oldStatusName := validation.StatusName

	now := time.Now()
	validation.StatusID = to.ID
	validation.StatusName = to.Name
	validation.ValidatedByID = changer
	validation.ValidatedAt = &now
	validation.Note = note

	entry := &domain.ValidationHistoryEntry{
		ValidationID:   validation.ID,
		ChangedByID:    changer,
		FromStatusID:   &fromStatusID,
		FromStatusName: &fromStatusName,
		ToStatusID:     to.ID,
		ToStatusName:   to.Name,
		Note:           note,
	}
	if err := s.validations.SaveWithHistory(ctx, validation, entry); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("validation", nil)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:          events.EventValidationChanged,
		SignalementID: signalementID,
		ActorID:       changer,
		Payload: events.ValidationChangedPayload{
			OldStatus: &oldStatusName,
			NewStatus: to.Name,
			Note:      note,
		},
	})
	return validation, nil
}

// GetBySignalement returns the report's validation, creating it lazily.
func (s *ValidationService) GetBySignalement(ctx context.Context, signalementID int64) (*domain.Validation, error) {
	if _, err := s.signalements.GetByID(ctx, signalementID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("signalement", map[string]any{"reason": "signalement-not-found"})
		}
		return nil, err
	}
	return s.Ensure(ctx, signalementID)
}

// History returns the validation audit entries newest-first.
func (s *ValidationService) History(ctx context.Context, signalementID int64) ([]domain.ValidationHistoryEntry, error) {
	validation, err := s.GetBySignalement(ctx, signalementID)
	if err != nil {
		return nil, err
	}
	return s.history.ListByValidation(ctx, validation.ID)
}

func (s *ValidationService) resolveChanger(ctx context.Context, userID *int64) *int64 {
	if userID == nil {
		return nil
	}
	user, err := s.users.GetByID(ctx, *userID)
	if err != nil {
		return nil
	}
	return &user.ID
}

func (s *ValidationService) publishEvent(ctx context.Context, event events.Event) {
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
