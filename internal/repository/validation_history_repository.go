package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/signalement-service/internal/domain"
)

// ValidationHistoryRepository stores validation audit entries.
type ValidationHistoryRepository interface {
	Create(ctx context.Context, entry *domain.ValidationHistoryEntry) error
	// ListByValidation returns entries newest-first.
	ListByValidation(ctx context.Context, validationID int64) ([]domain.ValidationHistoryEntry, error)
}

type validationHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewValidationHistoryRepository builds repository.
func NewValidationHistoryRepository(pool *pgxpool.Pool) ValidationHistoryRepository {
	return &validationHistoryRepository{pool: pool}
}

func (r *validationHistoryRepository) Create(ctx context.Context, entry *domain.ValidationHistoryEntry) error {
	const query = `
        INSERT INTO validation_history (validation_id, changed_by, from_status_id, to_status_id, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, changed_at`
	return r.pool.QueryRow(ctx, query,
		entry.ValidationID,
		entry.ChangedByID,
		entry.FromStatusID,
		entry.ToStatusID,
		entry.Note,
	).Scan(&entry.ID, &entry.ChangedAt)
}

func (r *validationHistoryRepository) ListByValidation(ctx context.Context, validationID int64) ([]domain.ValidationHistoryEntry, error) {
	const query = `
        SELECT h.id, h.validation_id, h.changed_by, h.changed_at,
               h.from_status_id, fs.name, h.to_status_id, ts.name, h.note
        FROM validation_history h
        LEFT JOIN validation_status fs ON fs.id=h.from_status_id
        JOIN validation_status ts ON ts.id=h.to_status_id
        WHERE h.validation_id=$1 ORDER BY h.changed_at DESC, h.id DESC`
	rows, err := r.pool.Query(ctx, query, validationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ValidationHistoryEntry
	for rows.Next() {
		var entry domain.ValidationHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ValidationID,
			&entry.ChangedByID,
			&entry.ChangedAt,
			&entry.FromStatusID,
			&entry.FromStatusName,
			&entry.ToStatusID,
			&entry.ToStatusName,
			&entry.Note,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
