package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/signalement-service/internal/domain"
)

// EntrepriseRepository stores the contracted-company catalog.
type EntrepriseRepository interface {
	Create(ctx context.Context, entreprise *domain.Entreprise) error
	Update(ctx context.Context, entreprise *domain.Entreprise) error
	GetByID(ctx context.Context, id int64) (*domain.Entreprise, error)
	GetByName(ctx context.Context, name string) (*domain.Entreprise, error)
	List(ctx context.Context) ([]domain.Entreprise, error)
	Delete(ctx context.Context, id int64) error
}

type entrepriseRepository struct {
	pool *pgxpool.Pool
}

// NewEntrepriseRepository returns a Postgres-backed implementation.
func NewEntrepriseRepository(pool *pgxpool.Pool) EntrepriseRepository {
	return &entrepriseRepository{pool: pool}
}

func (r *entrepriseRepository) Create(ctx context.Context, entreprise *domain.Entreprise) error {
	const query = `
        INSERT INTO entreprise (name, address, phone, email)
        VALUES ($1, $2, $3, $4)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		entreprise.Name, entreprise.Address, entreprise.Phone, entreprise.Email,
	).Scan(&entreprise.ID)
}

func (r *entrepriseRepository) Update(ctx context.Context, entreprise *domain.Entreprise) error {
	const query = `UPDATE entreprise SET name=$1, address=$2, phone=$3, email=$4 WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		entreprise.Name, entreprise.Address, entreprise.Phone, entreprise.Email, entreprise.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *entrepriseRepository) GetByID(ctx context.Context, id int64) (*domain.Entreprise, error) {
	const query = `SELECT id, name, address, phone, email FROM entreprise WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *entrepriseRepository) GetByName(ctx context.Context, name string) (*domain.Entreprise, error) {
	const query = `SELECT id, name, address, phone, email FROM entreprise WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *entrepriseRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Entreprise, error) {
	var entreprise domain.Entreprise
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&entreprise.ID, &entreprise.Name, &entreprise.Address, &entreprise.Phone, &entreprise.Email,
	); err != nil {
		return nil, err
	}
	return &entreprise, nil
}

func (r *entrepriseRepository) List(ctx context.Context) ([]domain.Entreprise, error) {
	const query = `SELECT id, name, address, phone, email FROM entreprise ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Entreprise
	for rows.Next() {
		var entreprise domain.Entreprise
		if err := rows.Scan(
			&entreprise.ID, &entreprise.Name, &entreprise.Address, &entreprise.Phone, &entreprise.Email,
		); err != nil {
			return nil, err
		}
		result = append(result, entreprise)
	}
	return result, rows.Err()
}

func (r *entrepriseRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM entreprise WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
