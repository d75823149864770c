package dedication

import (
	"context"
	"errors"
	"fmt"

	"baroni/internal/auth"
	"baroni/internal/ledger"
	"baroni/internal/logger"
	"baroni/internal/metrics"
)

var (
	ErrNotYourRequest = errors.New("dedication request belongs to another fan")
	ErrNotYourStar    = errors.New("dedication request is addressed to another star")
	ErrNotApproved    = errors.New("dedication request must be approved before delivery")
)

type Notifier interface {
	Notify(ctx context.Context, userID int, title, body string) error
}

type Service interface {
	Request(ctx context.Context, fanID int, req CreateRequest) (*DedicationRequest, error)
	Approve(ctx context.Context, actorID int, actorRole string, requestID int) (*DedicationRequest, error)
	UploadVideo(ctx context.Context, starID, requestID int, videoURL string) (*DedicationRequest, error)
	Reject(ctx context.Context, actorID int, actorRole string, requestID int) (*DedicationRequest, error)
	Cancel(ctx context.Context, fanID, requestID int) (*DedicationRequest, error)
	ListForFan(ctx context.Context, fanID int) ([]DedicationRequest, error)
	ListForStar(ctx context.Context, starID int) ([]DedicationRequest, error)
}

type service struct {
	repo     Repository
	engine   ledger.Engine
	notifier Notifier
}

func NewService(repo Repository, engine ledger.Engine, notifier Notifier) Service {
	return &service{
		repo:     repo,
		engine:   engine,
		notifier: notifier,
	}
}

func (s *service) Request(ctx context.Context, fanID int, req CreateRequest) (*DedicationRequest, error) {
	transaction, err := s.engine.Create(ctx, ledger.CreateParams{
		Type:        ledger.TypeDedication,
		PayerID:     fanID,
		ReceiverID:  req.StarID,
		Amount:      req.Fee,
		PaymentMode: ledger.ModeCoin,
		Description: "video dedication: " + req.Occasion,
	})
	if err != nil {
		return nil, err
	}

	request, err := s.repo.Create(ctx, fanID, req.StarID, req.Occasion, req.Instructions, req.Fee, &transaction.ID)
	if err != nil {
		if _, cancelErr := s.engine.Cancel(ctx, transaction.ID); cancelErr != nil {
			logger.Errorf("orphaned dedication transaction %d: %v", transaction.ID, cancelErr)
		}
		return nil, err
	}

	metrics.RecordDedication(string(StatusPending))
	_ = s.notifier.Notify(ctx, req.StarID, "New dedication request",
		fmt.Sprintf("A fan requested a video dedication for %q", req.Occasion))

	return request, nil
}

// Approve accepts the request without settling the payment; the escrow is
// released to the star only on delivery.
func (s *service) Approve(ctx context.Context, actorID int, actorRole string, requestID int) (*DedicationRequest, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if actorRole != auth.RoleAdmin && request.StarID != actorID {
		return nil, ErrNotYourStar
	}

	if err := s.repo.UpdateStatus(ctx, requestID, StatusPending, StatusApproved); err != nil {
		return nil, err
	}
	request.Status = StatusApproved

	metrics.RecordDedication(string(StatusApproved))
	_ = s.notifier.Notify(ctx, request.FanID, "Dedication accepted",
		fmt.Sprintf("Your dedication for %q was accepted", request.Occasion))

	return request, nil
}

// UploadVideo is the delivery step: it completes the payment and closes the
// request in that order, so a completed request always has a settled
// transaction behind it.
func (s *service) UploadVideo(ctx context.Context, starID, requestID int, videoURL string) (*DedicationRequest, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.StarID != starID {
		return nil, ErrNotYourStar
	}
	if request.Status != StatusApproved {
		return nil, ErrNotApproved
	}

	if request.TransactionID != nil {
		if _, err := s.engine.Complete(ctx, *request.TransactionID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetVideoAndStatus(ctx, requestID, videoURL, StatusApproved, StatusCompleted); err != nil {
		return nil, err
	}
	request.Status = StatusCompleted
	request.VideoURL = &videoURL

	metrics.RecordDedication(string(StatusCompleted))
	_ = s.notifier.Notify(ctx, request.FanID, "Your dedication is ready",
		fmt.Sprintf("The video for %q has been delivered", request.Occasion))

	return request, nil
}

func (s *service) Reject(ctx context.Context, actorID int, actorRole string, requestID int) (*DedicationRequest, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if actorRole != auth.RoleAdmin && request.StarID != actorID {
		return nil, ErrNotYourStar
	}
	if request.Status != StatusPending {
		return nil, ErrStateConflict
	}

	if request.TransactionID != nil {
		if _, err := s.engine.Cancel(ctx, *request.TransactionID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, requestID, StatusPending, StatusRejected); err != nil {
		return nil, err
	}
	request.Status = StatusRejected

	metrics.RecordDedication(string(StatusRejected))
	_ = s.notifier.Notify(ctx, request.FanID, "Dedication rejected",
		"Your dedication request was rejected and your coins were returned")

	return request, nil
}

// Cancel lets the fan back out while the request is still pending. Approved
// requests are already promised work and completed ones are delivered; neither
// can be cancelled here.
func (s *service) Cancel(ctx context.Context, fanID, requestID int) (*DedicationRequest, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.FanID != fanID {
		return nil, ErrNotYourRequest
	}
	if request.Status != StatusPending {
		return nil, ErrStateConflict
	}

	if request.TransactionID != nil {
		if _, err := s.engine.Cancel(ctx, *request.TransactionID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, requestID, StatusPending, StatusCancelled); err != nil {
		return nil, err
	}
	request.Status = StatusCancelled

	metrics.RecordDedication(string(StatusCancelled))
	_ = s.notifier.Notify(ctx, request.StarID, "Dedication cancelled",
		fmt.Sprintf("The dedication request for %q was cancelled by the fan", request.Occasion))

	return request, nil
}

func (s *service) ListForFan(ctx context.Context, fanID int) ([]DedicationRequest, error) {
	return s.repo.ListForFan(ctx, fanID)
}

func (s *service) ListForStar(ctx context.Context, starID int) ([]DedicationRequest, error) {
	return s.repo.ListForStar(ctx, starID)
}
