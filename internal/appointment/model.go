package appointment

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

type Appointment struct {
	ID            int       `db:"id" json:"id"`
	FanID         int       `db:"fan_id" json:"fan_id"`
	StarID        int       `db:"star_id" json:"star_id"`
	ScheduledAt   time.Time `db:"scheduled_at" json:"scheduled_at"`
	Note          string    `db:"note" json:"note"`
	Fee           int64     `db:"fee" json:"fee"`
	Status        Status    `db:"status" json:"status"`
	TransactionID *int      `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type BookRequest struct {
	StarID      int    `json:"star_id" binding:"required"`
	ScheduledAt string `json:"scheduled_at" binding:"required"` // RFC3339
	Note        string `json:"note" binding:"max=500"`
	Fee         int64  `json:"fee" binding:"gte=0"`
}
