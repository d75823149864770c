package dedication

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound      = errors.New("dedication request not found")
	ErrStateConflict = errors.New("dedication request is not in the expected status")
)

const columns = `id, fan_id, star_id, occasion, instructions, fee, status, video_url, transaction_id, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, fanID, starID int, occasion, instructions string, fee int64, transactionID *int) (*DedicationRequest, error) {
	query := `
		INSERT INTO dedication_requests (fan_id, star_id, occasion, instructions, fee, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		RETURNING ` + columns

	var request DedicationRequest
	err := r.db.GetContext(ctx, &request, query, fanID, starID, occasion, instructions, fee, transactionID)
	if err != nil {
		return nil, err
	}

	return &request, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*DedicationRequest, error) {
	var request DedicationRequest
	err := r.db.GetContext(ctx, &request,
		`SELECT `+columns+` FROM dedication_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &request, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int, from, to Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE dedication_requests SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStateConflict
	}

	return nil
}

func (r *repository) SetVideoAndStatus(ctx context.Context, id int, videoURL string, from, to Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE dedication_requests
		 SET video_url = $1, status = $2, updated_at = NOW()
		 WHERE id = $3 AND status = $4`,
		videoURL, to, id, from)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStateConflict
	}

	return nil
}

func (r *repository) ListForFan(ctx context.Context, fanID int) ([]DedicationRequest, error) {
	var requests []DedicationRequest
	err := r.db.SelectContext(ctx, &requests,
		`SELECT `+columns+` FROM dedication_requests WHERE fan_id = $1 ORDER BY created_at DESC`, fanID)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ListForStar(ctx context.Context, starID int) ([]DedicationRequest, error) {
	var requests []DedicationRequest
	err := r.db.SelectContext(ctx, &requests,
		`SELECT `+columns+` FROM dedication_requests WHERE star_id = $1 ORDER BY created_at DESC`, starID)
	if err != nil {
		return nil, err
	}
	return requests, nil
}
