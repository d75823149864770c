package ledger

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type TransactionType string

const (
	TypeAppointment        TransactionType = "appointment"
	TypeDedication         TransactionType = "dedication"
	TypeLiveShowHosting    TransactionType = "live_show_hosting"
	TypeLiveShowAttendance TransactionType = "live_show_attendance"
	TypeCoinPurchase       TransactionType = "coin_purchase"
)

type PaymentMode string

const (
	ModeCoin     PaymentMode = "coin"
	ModeExternal PaymentMode = "external"
)

type Status string

// Legal transitions: pending -> completed, pending -> cancelled,
// completed -> refunded. Nothing else.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

type Transaction struct {
	ID          int             `db:"id" json:"id"`
	TrackingID  string          `db:"tracking_id" json:"tracking_id"`
	Type        TransactionType `db:"type" json:"type"`
	PayerID     int             `db:"payer_id" json:"payer_id"`
	ReceiverID  int             `db:"receiver_id" json:"receiver_id"`
	Amount      int64           `db:"amount" json:"amount"`
	PaymentMode PaymentMode     `db:"payment_mode" json:"payment_mode"`
	Status      Status          `db:"status" json:"status"`
	Description string          `db:"description" json:"description"`
	Metadata    types.JSONText  `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// CreateParams carries everything needed to open a pending transaction.
type CreateParams struct {
	Type        TransactionType
	PayerID     int
	ReceiverID  int
	Amount      int64
	PaymentMode PaymentMode
	Description string
	Metadata    types.JSONText
}
