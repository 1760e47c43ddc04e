package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/signalement-service/internal/domain"
)

// ErrDuplicateValidation reports an insert that lost the one-validation-per-
// signalement uniqueness race. Callers resolve it by re-fetching.
var ErrDuplicateValidation = errors.New("validation already exists for signalement")

// ValidationRepository stores the 1:1 validation records.
type ValidationRepository interface {
	Create(ctx context.Context, validation *domain.Validation) error
	GetByID(ctx context.Context, id int64) (*domain.Validation, error)
	GetBySignalement(ctx context.Context, signalementID int64) (*domain.Validation, error)
	// SaveWithHistory persists the validation and appends its audit entry
	// as one transaction.
	SaveWithHistory(ctx context.Context, validation *domain.Validation, entry *domain.ValidationHistoryEntry) error
}

type validationRepository struct {
	pool *pgxpool.Pool
}

// NewValidationRepository builds repository.
func NewValidationRepository(pool *pgxpool.Pool) ValidationRepository {
	return &validationRepository{pool: pool}
}

const uniqueViolationCode = "23505"

func (r *validationRepository) Create(ctx context.Context, validation *domain.Validation) error {
	const query = `
        INSERT INTO validation (signalement_id, validation_status_id, validated_by_id, validated_at, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		validation.SignalementID,
		validation.StatusID,
		validation.ValidatedByID,
		validation.ValidatedAt,
		validation.Note,
	).Scan(&validation.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateValidation
		}
		return err
	}
	return nil
}

const validationColumns = `v.id, v.signalement_id, v.validation_status_id, vs.name,
               v.validated_by_id, v.validated_at, v.note`

func (r *validationRepository) GetByID(ctx context.Context, id int64) (*domain.Validation, error) {
	query := `SELECT ` + validationColumns + `
        FROM validation v JOIN validation_status vs ON vs.id=v.validation_status_id WHERE v.id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *validationRepository) GetBySignalement(ctx context.Context, signalementID int64) (*domain.Validation, error) {
	query := `SELECT ` + validationColumns + `
        FROM validation v JOIN validation_status vs ON vs.id=v.validation_status_id WHERE v.signalement_id=$1`
	return r.fetchSingle(ctx, query, signalementID)
}

func (r *validationRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Validation, error) {
	var validation domain.Validation
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&validation.ID,
		&validation.SignalementID,
		&validation.StatusID,
		&validation.StatusName,
		&validation.ValidatedByID,
		&validation.ValidatedAt,
		&validation.Note,
	); err != nil {
		return nil, err
	}
	return &validation, nil
}

func (r *validationRepository) SaveWithHistory(ctx context.Context, validation *domain.Validation, entry *domain.ValidationHistoryEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateQuery = `
        UPDATE validation SET validation_status_id=$1, validated_by_id=$2, validated_at=$3, note=$4
        WHERE id=$5`
	cmd, err := tx.Exec(ctx, updateQuery,
		validation.StatusID,
		validation.ValidatedByID,
		validation.ValidatedAt,
		validation.Note,
		validation.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	const historyQuery = `
        INSERT INTO validation_history (validation_id, changed_by, from_status_id, to_status_id, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, changed_at`
	if err := tx.QueryRow(ctx, historyQuery,
		entry.ValidationID,
		entry.ChangedByID,
		entry.FromStatusID,
		entry.ToStatusID,
		entry.Note,
	).Scan(&entry.ID, &entry.ChangedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
