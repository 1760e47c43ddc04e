package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/signalement-service/internal/domain"
)

// TypeUserRepository stores the role catalog.
type TypeUserRepository interface {
	Create(ctx context.Context, typeUser *domain.TypeUser) error
	GetByID(ctx context.Context, id int64) (*domain.TypeUser, error)
	GetByName(ctx context.Context, name string) (*domain.TypeUser, error)
	List(ctx context.Context) ([]domain.TypeUser, error)
}

type typeUserRepository struct {
	pool *pgxpool.Pool
}

// NewTypeUserRepository returns a Postgres-backed implementation.
func NewTypeUserRepository(pool *pgxpool.Pool) TypeUserRepository {
	return &typeUserRepository{pool: pool}
}

func (r *typeUserRepository) Create(ctx context.Context, typeUser *domain.TypeUser) error {
	const query = `INSERT INTO type_user (name) VALUES ($1) RETURNING id`
	return r.pool.QueryRow(ctx, query, typeUser.Name).Scan(&typeUser.ID)
}

func (r *typeUserRepository) GetByID(ctx context.Context, id int64) (*domain.TypeUser, error) {
	const query = `SELECT id, name FROM type_user WHERE id=$1`
	var typeUser domain.TypeUser
	if err := r.pool.QueryRow(ctx, query, id).Scan(&typeUser.ID, &typeUser.Name); err != nil {
		return nil, err
	}
	return &typeUser, nil
}

func (r *typeUserRepository) GetByName(ctx context.Context, name string) (*domain.TypeUser, error) {
	const query = `SELECT id, name FROM type_user WHERE name=$1`
	var typeUser domain.TypeUser
	if err := r.pool.QueryRow(ctx, query, name).Scan(&typeUser.ID, &typeUser.Name); err != nil {
		return nil, err
	}
	return &typeUser, nil
}

func (r *typeUserRepository) List(ctx context.Context) ([]domain.TypeUser, error) {
	const query = `SELECT id, name FROM type_user ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TypeUser
	for rows.Next() {
		var typeUser domain.TypeUser
		if err := rows.Scan(&typeUser.ID, &typeUser.Name); err != nil {
			return nil, err
		}
		result = append(result, typeUser)
	}
	return result, rows.Err()
}
