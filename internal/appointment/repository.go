package appointment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound      = errors.New("appointment not found")
	ErrStateConflict = errors.New("appointment is not in the expected status")
)

const columns = `id, fan_id, star_id, scheduled_at, note, fee, status, transaction_id, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, fanID, starID int, scheduledAt time.Time, note string, fee int64, transactionID *int) (*Appointment, error) {
	query := `
		INSERT INTO appointments (fan_id, star_id, scheduled_at, note, fee, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		RETURNING ` + columns

	var appointment Appointment
	err := r.db.GetContext(ctx, &appointment, query, fanID, starID, scheduledAt, note, fee, transactionID)
	if err != nil {
		return nil, err
	}

	return &appointment, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Appointment, error) {
	var appointment Appointment
	err := r.db.GetContext(ctx, &appointment,
		`SELECT `+columns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &appointment, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int, from, to Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
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

func (r *repository) ListForFan(ctx context.Context, fanID int) ([]Appointment, error) {
	var appointments []Appointment
	err := r.db.SelectContext(ctx, &appointments,
		`SELECT `+columns+` FROM appointments WHERE fan_id = $1 ORDER BY created_at DESC`, fanID)
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *repository) ListForStar(ctx context.Context, starID int) ([]Appointment, error) {
	var appointments []Appointment
	err := r.db.SelectContext(ctx, &appointments,
		`SELECT `+columns+` FROM appointments WHERE star_id = $1 ORDER BY created_at DESC`, starID)
	if err != nil {
		return nil, err
	}
	return appointments, nil
}
