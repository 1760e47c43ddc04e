package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/signalement-service/internal/domain"
)

// SignalementRepository encapsulates signalement persistence.
type SignalementRepository interface {
	Create(ctx context.Context, sig *domain.Signalement) error
	Update(ctx context.Context, sig *domain.Signalement) error
	GetByID(ctx context.Context, id int64) (*domain.Signalement, error)
	GetByMirrorDocID(ctx context.Context, docID string) (*domain.Signalement, error)
	List(ctx context.Context) ([]domain.Signalement, error)
	// ListByValidationStatusName filters on the validation workflow state.
	// PENDING also matches signalements that have no validation row yet.
	ListByValidationStatusName(ctx context.Context, statusName string) ([]domain.Signalement, error)
	// SaveStatusTransition persists the signalement row and appends the audit
	// entry as one transaction, so current status and history never diverge.
	SaveStatusTransition(ctx context.Context, sig *domain.Signalement, entry *domain.StatusEntry) error
	// Delete removes the signalement with its validation, both audit trails
	// and its photos, history tables first.
	Delete(ctx context.Context, id int64) error
}

type signalementRepository struct {
	pool *pgxpool.Pool
}

// NewSignalementRepository instantiates repository.
func NewSignalementRepository(pool *pgxpool.Pool) SignalementRepository {
	return &signalementRepository{pool: pool}
}

const signalementColumns = `s.id, s.user_id, s.status_id, st.name, s.entreprise_id,
               s.latitude, s.longitude, s.description, s.surface_area, s.budget,
               s.photo_url, s.mirror_doc_id, s.user_uid, s.created_at`

func (r *signalementRepository) Create(ctx context.Context, sig *domain.Signalement) error {
	const query = `
        INSERT INTO signalement (user_id, status_id, entreprise_id, latitude, longitude,
            description, surface_area, budget, photo_url, mirror_doc_id, user_uid)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		sig.UserID,
		sig.StatusID,
		sig.EntrepriseID,
		sig.Latitude,
		sig.Longitude,
		sig.Description,
		sig.SurfaceArea,
		sig.Budget,
		sig.PhotoURL,
		sig.MirrorDocID,
		sig.UserUID,
	).Scan(&sig.ID, &sig.CreatedAt)
}

const signalementUpdateSQL = `
        UPDATE signalement SET user_id=$1, status_id=$2, entreprise_id=$3, latitude=$4,
            longitude=$5, description=$6, surface_area=$7, budget=$8, photo_url=$9,
            mirror_doc_id=$10, user_uid=$11
        WHERE id=$12`

func (r *signalementRepository) Update(ctx context.Context, sig *domain.Signalement) error {
	cmd, err := r.pool.Exec(ctx, signalementUpdateSQL, updateArgs(sig)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func updateArgs(sig *domain.Signalement) []any {
	return []any{
		sig.UserID,
		sig.StatusID,
		sig.EntrepriseID,
		sig.Latitude,
		sig.Longitude,
		sig.Description,
		sig.SurfaceArea,
		sig.Budget,
		sig.PhotoURL,
		sig.MirrorDocID,
		sig.UserUID,
		sig.ID,
	}
}

func (r *signalementRepository) GetByID(ctx context.Context, id int64) (*domain.Signalement, error) {
	query := `SELECT ` + signalementColumns + ` FROM signalement s JOIN status st ON st.id=s.status_id WHERE s.id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *signalementRepository) GetByMirrorDocID(ctx context.Context, docID string) (*domain.Signalement, error) {
	query := `SELECT ` + signalementColumns + ` FROM signalement s JOIN status st ON st.id=s.status_id WHERE s.mirror_doc_id=$1`
	return r.fetchSingle(ctx, query, docID)
}

func (r *signalementRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Signalement, error) {
	var sig domain.Signalement
	if err := scanSignalement(r.pool.QueryRow(ctx, query, arg), &sig); err != nil {
		return nil, err
	}
	return &sig, nil
}

func (r *signalementRepository) List(ctx context.Context) ([]domain.Signalement, error) {
	query := `SELECT ` + signalementColumns + ` FROM signalement s JOIN status st ON st.id=s.status_id ORDER BY s.id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSignalements(rows)
}

func (r *signalementRepository) ListByValidationStatusName(ctx context.Context, statusName string) ([]domain.Signalement, error) {
	query := `SELECT ` + signalementColumns + `
             FROM signalement s
             JOIN status st ON st.id=s.status_id
             LEFT JOIN validation v ON v.signalement_id=s.id
             LEFT JOIN validation_status vs ON vs.id=v.validation_status_id
             WHERE ($1 = 'PENDING' AND v.id IS NULL) OR vs.name = $1
             ORDER BY s.id`
	rows, err := r.pool.Query(ctx, query, statusName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSignalements(rows)
}

func (r *signalementRepository) SaveStatusTransition(ctx context.Context, sig *domain.Signalement, entry *domain.StatusEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, signalementUpdateSQL, updateArgs(sig)...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	const historyQuery = `
        INSERT INTO signalement_status (signalement_id, status_id, changed_by, comment)
        VALUES ($1,$2,$3,$4)
        RETURNING id, date_status`
	if err := tx.QueryRow(ctx, historyQuery,
		entry.SignalementID,
		entry.StatusID,
		entry.ChangedByID,
		entry.Comment,
	).Scan(&entry.ID, &entry.DateStatus); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *signalementRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
        DELETE FROM validation_history
        WHERE validation_id IN (SELECT id FROM validation WHERE signalement_id=$1)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM validation WHERE signalement_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM signalement_status WHERE signalement_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM signalement_photo WHERE signalement_id=$1`, id); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM signalement WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func scanSignalement(row pgx.Row, sig *domain.Signalement) error {
	return row.Scan(
		&sig.ID,
		&sig.UserID,
		&sig.StatusID,
		&sig.StatusName,
		&sig.EntrepriseID,
		&sig.Latitude,
		&sig.Longitude,
		&sig.Description,
		&sig.SurfaceArea,
		&sig.Budget,
		&sig.PhotoURL,
		&sig.MirrorDocID,
		&sig.UserUID,
		&sig.CreatedAt,
	)
}

func scanSignalements(rows pgx.Rows) ([]domain.Signalement, error) {
	var result []domain.Signalement
	for rows.Next() {
		var sig domain.Signalement
		if err := scanSignalement(rows, &sig); err != nil {
			return nil, err
		}
		result = append(result, sig)
	}
	return result, rows.Err()
}
