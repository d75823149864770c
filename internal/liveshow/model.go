package liveshow

import "time"

type ShowStatus string

const (
	ShowActive    ShowStatus = "active"
	ShowCancelled ShowStatus = "cancelled"
	ShowCompleted ShowStatus = "completed"
)

type AttendanceStatus string

const (
	AttendanceActive    AttendanceStatus = "active"
	AttendanceCancelled AttendanceStatus = "cancelled"
	AttendanceCompleted AttendanceStatus = "completed"
)

type LiveShow struct {
	ID            int        `db:"id" json:"id"`
	StarID        int        `db:"star_id" json:"star_id"`
	Code          string     `db:"code" json:"code"`
	Title         string     `db:"title" json:"title"`
	ScheduledAt   time.Time  `db:"scheduled_at" json:"scheduled_at"`
	HostingFee    int64      `db:"hosting_fee" json:"hosting_fee"`
	AttendanceFee int64      `db:"attendance_fee" json:"attendance_fee"`
	Status        ShowStatus `db:"status" json:"status"`
	TransactionID *int       `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type Attendance struct {
	ID            int              `db:"id" json:"id"`
	ShowID        int              `db:"show_id" json:"show_id"`
	FanID         int              `db:"fan_id" json:"fan_id"`
	Status        AttendanceStatus `db:"status" json:"status"`
	TransactionID *int             `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

type HostRequest struct {
	Title         string `json:"title" binding:"required,max=200"`
	ScheduledAt   string `json:"scheduled_at" binding:"required"` // RFC3339
	HostingFee    int64  `json:"hosting_fee" binding:"gte=0"`
	AttendanceFee int64  `json:"attendance_fee" binding:"gte=0"`
}

// FailedItem is one attendee whose ledger operation failed during a fan-out.
type FailedItem struct {
	AttendanceID int    `json:"attendance_id"`
	Error        string `json:"error"`
}

// BatchResult reports a best-effort fan-out: callers reconcile failed
// attendance ids individually instead of retrying the whole batch.
type BatchResult struct {
	Succeeded []int        `json:"succeeded"`
	Failed    []FailedItem `json:"failed"`
}
