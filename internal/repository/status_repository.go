package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/signalement-service/internal/domain"
)

// StatusRepository stores the lifecycle status catalog.
type StatusRepository interface {
	Create(ctx context.Context, status *domain.Status) error
	Update(ctx context.Context, status *domain.Status) error
	GetByID(ctx context.Context, id int64) (*domain.Status, error)
	GetByName(ctx context.Context, name string) (*domain.Status, error)
	List(ctx context.Context) ([]domain.Status, error)
	Delete(ctx context.Context, id int64) error
}

type statusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository returns a Postgres-backed implementation.
func NewStatusRepository(pool *pgxpool.Pool) StatusRepository {
	return &statusRepository{pool: pool}
}

func (r *statusRepository) Create(ctx context.Context, status *domain.Status) error {
	const query = `
        INSERT INTO status (name, description)
        VALUES ($1, $2)
        RETURNING id`
	return r.pool.QueryRow(ctx, query, status.Name, status.Description).Scan(&status.ID)
}

func (r *statusRepository) Update(ctx context.Context, status *domain.Status) error {
	const query = `UPDATE status SET name=$1, description=$2 WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, status.Name, status.Description, status.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *statusRepository) GetByID(ctx context.Context, id int64) (*domain.Status, error) {
	const query = `SELECT id, name, description FROM status WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *statusRepository) GetByName(ctx context.Context, name string) (*domain.Status, error) {
	const query = `SELECT id, name, description FROM status WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *statusRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Status, error) {
	var status domain.Status
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&status.ID, &status.Name, &status.Description); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) List(ctx context.Context) ([]domain.Status, error) {
	const query = `SELECT id, name, description FROM status ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Status
	for rows.Next() {
		var status domain.Status
		if err := rows.Scan(&status.ID, &status.Name, &status.Description); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

func (r *statusRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM status WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
