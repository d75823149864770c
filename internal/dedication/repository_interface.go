package dedication

import "context"

type Repository interface {
	Create(ctx context.Context, fanID, starID int, occasion, instructions string, fee int64, transactionID *int) (*DedicationRequest, error)
	GetByID(ctx context.Context, id int) (*DedicationRequest, error)
	UpdateStatus(ctx context.Context, id int, from, to Status) error
	// SetVideoAndStatus stores the delivered video URL and flips the status in
	// one statement, guarded on the current status.
	SetVideoAndStatus(ctx context.Context, id int, videoURL string, from, to Status) error
	ListForFan(ctx context.Context, fanID int) ([]DedicationRequest, error)
	ListForStar(ctx context.Context, starID int) ([]DedicationRequest, error)
}
