package liveshow

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrShowNotFound  = errors.New("live show not found")
	ErrStateConflict = errors.New("live show is not in the expected status")
)

const showColumns = `id, star_id, code, title, scheduled_at, hosting_fee, attendance_fee, status, transaction_id, created_at, updated_at`
const attendanceColumns = `id, show_id, fan_id, status, transaction_id, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateShow(ctx context.Context, starID int, code, title string, scheduledAt time.Time, hostingFee, attendanceFee int64, transactionID *int) (*LiveShow, error) {
	query := `
		INSERT INTO live_shows (star_id, code, title, scheduled_at, hosting_fee, attendance_fee, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)
		RETURNING ` + showColumns

	var show LiveShow
	err := r.db.GetContext(ctx, &show, query, starID, code, title, scheduledAt, hostingFee, attendanceFee, transactionID)
	if err != nil {
		return nil, err
	}

	return &show, nil
}

func (r *repository) GetShowByID(ctx context.Context, id int) (*LiveShow, error) {
	var show LiveShow
	err := r.db.GetContext(ctx, &show,
		`SELECT `+showColumns+` FROM live_shows WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &show, nil
}

func (r *repository) GetShowByCode(ctx context.Context, code string) (*LiveShow, error) {
	var show LiveShow
	err := r.db.GetContext(ctx, &show,
		`SELECT `+showColumns+` FROM live_shows WHERE code = $1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &show, nil
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM live_shows WHERE code = $1)`, code)
	return exists, err
}

func (r *repository) UpdateShowStatus(ctx context.Context, id int, from, to ShowStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE live_shows SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
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

func (r *repository) ListShows(ctx context.Context, onlyActive bool) ([]LiveShow, error) {
	query := `SELECT ` + showColumns + ` FROM live_shows`
	if onlyActive {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY scheduled_at ASC`

	var shows []LiveShow
	err := r.db.SelectContext(ctx, &shows, query)
	if err != nil {
		return nil, err
	}
	return shows, nil
}

func (r *repository) CreateAttendance(ctx context.Context, showID, fanID int, transactionID *int) (*Attendance, error) {
	query := `
		INSERT INTO live_show_attendances (show_id, fan_id, status, transaction_id)
		VALUES ($1, $2, 'active', $3)
		RETURNING ` + attendanceColumns

	var attendance Attendance
	err := r.db.GetContext(ctx, &attendance, query, showID, fanID, transactionID)
	if err != nil {
		return nil, err
	}

	return &attendance, nil
}

func (r *repository) HasActiveAttendance(ctx context.Context, showID, fanID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(
			SELECT 1 FROM live_show_attendances
			WHERE show_id = $1 AND fan_id = $2 AND status = 'active'
		)`, showID, fanID)
	return exists, err
}

func (r *repository) ListActiveAttendances(ctx context.Context, showID int) ([]Attendance, error) {
	var attendances []Attendance
	err := r.db.SelectContext(ctx, &attendances,
		`SELECT `+attendanceColumns+` FROM live_show_attendances
		 WHERE show_id = $1 AND status = 'active'
		 ORDER BY created_at ASC`, showID)
	if err != nil {
		return nil, err
	}
	return attendances, nil
}

func (r *repository) UpdateAttendanceStatus(ctx context.Context, id int, from, to AttendanceStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE live_show_attendances SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
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
