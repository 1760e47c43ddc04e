package persistence

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/signalement-service/internal/domain"
	"github.com/spec-kit/signalement-service/internal/repository"
)

// SeedDefaults ensures the catalog rows the services depend on exist:
// lifecycle statuses, validation statuses and user types. Create-if-absent
// by name; never deletes or rewrites existing rows.
func SeedDefaults(
	ctx context.Context,
	statuses repository.StatusRepository,
	validationStatuses repository.ValidationStatusRepository,
	typeUsers repository.TypeUserRepository,
	logger *zap.Logger,
) error {
	statusDefaults := []struct {
		name        string
		description string
	}{
		{domain.StatusNouveau, "Signalement nouvellement créé"},
		{domain.StatusEnCours, "Traitement en cours"},
		{domain.StatusTermine, "Travaux terminés"},
	}
	for _, def := range statusDefaults {
		if _, err := statuses.GetByName(ctx, def.name); err == nil {
			continue
		}
		desc := def.description
		logger.Info("creating default status", zap.String("name", def.name))
		if err := statuses.Create(ctx, &domain.Status{Name: def.name, Description: &desc}); err != nil {
			return err
		}
	}

	validationDefaults := []struct {
		name        string
		description string
	}{
		{domain.ValidationPending, "En attente de validation"},
		{domain.ValidationApproved, "Validé"},
		{domain.ValidationRejected, "Rejeté"},
	}
	for _, def := range validationDefaults {
		if _, err := validationStatuses.GetByName(ctx, def.name); err == nil {
			continue
		}
		desc := def.description
		logger.Info("creating default validation status", zap.String("name", def.name))
		if err := validationStatuses.Create(ctx, &domain.ValidationStatus{Name: def.name, Description: &desc}); err != nil {
			return err
		}
	}

	for _, name := range []string{domain.TypeUserUser, domain.TypeUserManager} {
		if _, err := typeUsers.GetByName(ctx, name); err == nil {
			continue
		}
		logger.Info("creating default user type", zap.String("name", name))
		if err := typeUsers.Create(ctx, &domain.TypeUser{Name: name}); err != nil {
			return err
		}
	}

	return nil
}
