package dedication

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// DedicationRequest is a paid request for a pre-recorded video. Payment is
// escrowed at creation but only settles when the star delivers the video:
// pay on delivery, not on acceptance.
type DedicationRequest struct {
	ID            int       `db:"id" json:"id"`
	FanID         int       `db:"fan_id" json:"fan_id"`
	StarID        int       `db:"star_id" json:"star_id"`
	Occasion      string    `db:"occasion" json:"occasion"`
	Instructions  string    `db:"instructions" json:"instructions"`
	Fee           int64     `db:"fee" json:"fee"`
	Status        Status    `db:"status" json:"status"`
	VideoURL      *string   `db:"video_url" json:"video_url,omitempty"`
	TransactionID *int      `db:"transaction_id" json:"transaction_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type CreateRequest struct {
	StarID       int    `json:"star_id" binding:"required"`
	Occasion     string `json:"occasion" binding:"required,max=100"`
	Instructions string `json:"instructions" binding:"max=1000"`
	Fee          int64  `json:"fee" binding:"required,gt=0"`
}

type UploadVideoRequest struct {
	VideoURL string `json:"video_url" binding:"required,url"`
}
