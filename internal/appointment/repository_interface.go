package appointment

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, fanID, starID int, scheduledAt time.Time, note string, fee int64, transactionID *int) (*Appointment, error)
	GetByID(ctx context.Context, id int) (*Appointment, error)
	// UpdateStatus flips status only when the row is currently in from;
	// returns ErrStateConflict otherwise.
	UpdateStatus(ctx context.Context, id int, from, to Status) error
	ListForFan(ctx context.Context, fanID int) ([]Appointment, error)
	ListForStar(ctx context.Context, starID int) ([]Appointment, error)
}
