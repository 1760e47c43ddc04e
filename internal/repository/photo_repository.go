package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/signalement-service/internal/domain"
)

// PhotoRepository stores photo URL rows owned by signalements.
type PhotoRepository interface {
	Create(ctx context.Context, photo *domain.SignalementPhoto) error
	ListBySignalement(ctx context.Context, signalementID int64) ([]domain.SignalementPhoto, error)
	DeleteBySignalement(ctx context.Context, signalementID int64) error
}

type photoRepository struct {
	pool *pgxpool.Pool
}

// NewPhotoRepository builds repository.
func NewPhotoRepository(pool *pgxpool.Pool) PhotoRepository {
	return &photoRepository{pool: pool}
}

func (r *photoRepository) Create(ctx context.Context, photo *domain.SignalementPhoto) error {
	const query = `
        INSERT INTO signalement_photo (signalement_id, url)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, photo.SignalementID, photo.URL).Scan(&photo.ID, &photo.CreatedAt)
}

func (r *photoRepository) ListBySignalement(ctx context.Context, signalementID int64) ([]domain.SignalementPhoto, error) {
	const query = `
        SELECT id, signalement_id, url, created_at
        FROM signalement_photo WHERE signalement_id=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, signalementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SignalementPhoto
	for rows.Next() {
		var photo domain.SignalementPhoto
		if err := rows.Scan(&photo.ID, &photo.SignalementID, &photo.URL, &photo.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, photo)
	}
	return result, rows.Err()
}

func (r *photoRepository) DeleteBySignalement(ctx context.Context, signalementID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM signalement_photo WHERE signalement_id=$1`, signalementID)
	return err
}
