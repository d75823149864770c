package liveshow

import (
	"context"
	"time"
)

type Repository interface {
	CreateShow(ctx context.Context, starID int, code, title string, scheduledAt time.Time, hostingFee, attendanceFee int64, transactionID *int) (*LiveShow, error)
	GetShowByID(ctx context.Context, id int) (*LiveShow, error)
	GetShowByCode(ctx context.Context, code string) (*LiveShow, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateShowStatus(ctx context.Context, id int, from, to ShowStatus) error
	ListShows(ctx context.Context, onlyActive bool) ([]LiveShow, error)

	CreateAttendance(ctx context.Context, showID, fanID int, transactionID *int) (*Attendance, error)
	HasActiveAttendance(ctx context.Context, showID, fanID int) (bool, error)
	ListActiveAttendances(ctx context.Context, showID int) ([]Attendance, error)
	UpdateAttendanceStatus(ctx context.Context, id int, from, to AttendanceStatus) error
}
