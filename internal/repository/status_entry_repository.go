package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/signalement-service/internal/domain"
)

// StatusEntryRepository stores the append-only status audit trail.
type StatusEntryRepository interface {
	Create(ctx context.Context, entry *domain.StatusEntry) error
	ListBySignalement(ctx context.Context, signalementID int64) ([]domain.StatusEntry, error)
}

type statusEntryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusEntryRepository builds repository.
func NewStatusEntryRepository(pool *pgxpool.Pool) StatusEntryRepository {
	return &statusEntryRepository{pool: pool}
}

func (r *statusEntryRepository) Create(ctx context.Context, entry *domain.StatusEntry) error {
	const query = `
        INSERT INTO signalement_status (signalement_id, status_id, changed_by, comment)
        VALUES ($1,$2,$3,$4)
        RETURNING id, date_status`
	return r.pool.QueryRow(ctx, query,
		entry.SignalementID,
		entry.StatusID,
		entry.ChangedByID,
		entry.Comment,
	).Scan(&entry.ID, &entry.DateStatus)
}

func (r *statusEntryRepository) ListBySignalement(ctx context.Context, signalementID int64) ([]domain.StatusEntry, error) {
	const query = `
        SELECT e.id, e.signalement_id, e.status_id, st.name, e.changed_by, e.date_status, COALESCE(e.comment, '')
        FROM signalement_status e JOIN status st ON st.id=e.status_id
        WHERE e.signalement_id=$1 ORDER BY e.date_status ASC`
	rows, err := r.pool.Query(ctx, query, signalementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusEntry
	for rows.Next() {
		var entry domain.StatusEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.SignalementID,
			&entry.StatusID,
			&entry.StatusName,
			&entry.ChangedByID,
			&entry.DateStatus,
			&entry.Comment,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
