package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/signalement-service/internal/domain"
)

// ValidationStatusRepository stores the validation status catalog.
type ValidationStatusRepository interface {
	Create(ctx context.Context, status *domain.ValidationStatus) error
	GetByID(ctx context.Context, id int64) (*domain.ValidationStatus, error)
	GetByName(ctx context.Context, name string) (*domain.ValidationStatus, error)
	List(ctx context.Context) ([]domain.ValidationStatus, error)
}

type validationStatusRepository struct {
	pool *pgxpool.Pool
}

// NewValidationStatusRepository returns a Postgres-backed implementation.
func NewValidationStatusRepository(pool *pgxpool.Pool) ValidationStatusRepository {
	return &validationStatusRepository{pool: pool}
}

func (r *validationStatusRepository) Create(ctx context.Context, status *domain.ValidationStatus) error {
	const query = `
        INSERT INTO validation_status (name, description)
        VALUES ($1, $2)
        RETURNING id`
	return r.pool.QueryRow(ctx, query, status.Name, status.Description).Scan(&status.ID)
}

func (r *validationStatusRepository) GetByID(ctx context.Context, id int64) (*domain.ValidationStatus, error) {
	const query = `SELECT id, name, description FROM validation_status WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *validationStatusRepository) GetByName(ctx context.Context, name string) (*domain.ValidationStatus, error) {
	const query = `SELECT id, name, description FROM validation_status WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *validationStatusRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ValidationStatus, error) {
	var status domain.ValidationStatus
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&status.ID, &status.Name, &status.Description); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *validationStatusRepository) List(ctx context.Context) ([]domain.ValidationStatus, error) {
	const query = `SELECT id, name, description FROM validation_status ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ValidationStatus
	for rows.Next() {
		var status domain.ValidationStatus
		if err := rows.Scan(&status.ID, &status.Name, &status.Description); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}
