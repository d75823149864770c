package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"baroni/internal/auth"
	"baroni/internal/ledger"
	"baroni/internal/logger"
	"baroni/internal/metrics"
)

var (
	ErrScheduleInPast = errors.New("cannot book an appointment in the past")
	ErrNotYourCall    = errors.New("appointment belongs to another star")
	ErrNotYourBooking = errors.New("appointment belongs to another fan")
)

// Notifier is the fire-and-forget notification sink.
type Notifier interface {
	Notify(ctx context.Context, userID int, title, body string) error
}

type Service interface {
	Book(ctx context.Context, fanID int, starID int, scheduledAt time.Time, note string, fee int64) (*Appointment, error)
	Approve(ctx context.Context, actorID int, actorRole string, appointmentID int) (*Appointment, error)
	Reject(ctx context.Context, actorID int, actorRole string, appointmentID int) (*Appointment, error)
	Cancel(ctx context.Context, fanID, appointmentID int) (*Appointment, error)
	ListForFan(ctx context.Context, fanID int) ([]Appointment, error)
	ListForStar(ctx context.Context, starID int) ([]Appointment, error)
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

// Book opens the payment first so the appointment row always carries its
// transaction id from the start; a fee of zero books without a transaction.
func (s *service) Book(ctx context.Context, fanID int, starID int, scheduledAt time.Time, note string, fee int64) (*Appointment, error) {
	if scheduledAt.Before(time.Now()) {
		return nil, ErrScheduleInPast
	}

	var transactionID *int
	if fee > 0 {
		transaction, err := s.engine.Create(ctx, ledger.CreateParams{
			Type:        ledger.TypeAppointment,
			PayerID:     fanID,
			ReceiverID:  starID,
			Amount:      fee,
			PaymentMode: ledger.ModeCoin,
			Description: "appointment booking",
		})
		if err != nil {
			return nil, err
		}
		transactionID = &transaction.ID
	}

	appointment, err := s.repo.Create(ctx, fanID, starID, scheduledAt, note, fee, transactionID)
	if err != nil {
		// The escrowed payment must not leak when the booking write fails.
		if transactionID != nil {
			if _, cancelErr := s.engine.Cancel(ctx, *transactionID); cancelErr != nil {
				logger.Errorf("orphaned appointment transaction %d: %v", *transactionID, cancelErr)
			}
		}
		return nil, err
	}

	metrics.RecordAppointment(string(StatusPending))
	_ = s.notifier.Notify(ctx, starID, "New appointment request",
		fmt.Sprintf("A fan requested an appointment on %s", scheduledAt.Format(time.RFC1123)))

	return appointment, nil
}

// Approve completes the escrowed payment and moves the appointment to
// approved. Only the appointment's star or an admin may approve.
func (s *service) Approve(ctx context.Context, actorID int, actorRole string, appointmentID int) (*Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if actorRole != auth.RoleAdmin && appointment.StarID != actorID {
		return nil, ErrNotYourCall
	}
	if appointment.Status != StatusPending {
		return nil, ErrStateConflict
	}

	if appointment.TransactionID != nil {
		if _, err := s.engine.Complete(ctx, *appointment.TransactionID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, appointmentID, StatusPending, StatusApproved); err != nil {
		return nil, err
	}
	appointment.Status = StatusApproved

	metrics.RecordAppointment(string(StatusApproved))
	_ = s.notifier.Notify(ctx, appointment.FanID, "Appointment approved",
		fmt.Sprintf("Your appointment on %s was approved", appointment.ScheduledAt.Format(time.RFC1123)))

	return appointment, nil
}

// Reject returns the escrowed payment to the fan and moves the appointment to
// rejected.
func (s *service) Reject(ctx context.Context, actorID int, actorRole string, appointmentID int) (*Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if actorRole != auth.RoleAdmin && appointment.StarID != actorID {
		return nil, ErrNotYourCall
	}
	if appointment.Status != StatusPending {
		return nil, ErrStateConflict
	}

	if appointment.TransactionID != nil {
		if _, err := s.engine.Cancel(ctx, *appointment.TransactionID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, appointmentID, StatusPending, StatusRejected); err != nil {
		return nil, err
	}
	appointment.Status = StatusRejected

	metrics.RecordAppointment(string(StatusRejected))
	_ = s.notifier.Notify(ctx, appointment.FanID, "Appointment rejected",
		"Your appointment request was rejected and your coins were returned")

	return appointment, nil
}

// Cancel is the fan's exit. A pending appointment releases the escrow; an
// approved one reverses the already-completed payment with a refund.
func (s *service) Cancel(ctx context.Context, fanID, appointmentID int) (*Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if appointment.FanID != fanID {
		return nil, ErrNotYourBooking
	}

	switch appointment.Status {
	case StatusPending:
		if appointment.TransactionID != nil {
			if _, err := s.engine.Cancel(ctx, *appointment.TransactionID); err != nil {
				return nil, err
			}
		}
		if err := s.repo.UpdateStatus(ctx, appointmentID, StatusPending, StatusCancelled); err != nil {
			return nil, err
		}
	case StatusApproved:
		if appointment.TransactionID != nil {
			if _, err := s.engine.Refund(ctx, *appointment.TransactionID); err != nil {
				return nil, err
			}
		}
		if err := s.repo.UpdateStatus(ctx, appointmentID, StatusApproved, StatusCancelled); err != nil {
			return nil, err
		}
	default:
		return nil, ErrStateConflict
	}
	appointment.Status = StatusCancelled

	metrics.RecordAppointment(string(StatusCancelled))
	_ = s.notifier.Notify(ctx, appointment.StarID, "Appointment cancelled",
		fmt.Sprintf("The appointment on %s was cancelled by the fan", appointment.ScheduledAt.Format(time.RFC1123)))

	return appointment, nil
}

func (s *service) ListForFan(ctx context.Context, fanID int) ([]Appointment, error) {
	return s.repo.ListForFan(ctx, fanID)
}

func (s *service) ListForStar(ctx context.Context, starID int) ([]Appointment, error) {
	return s.repo.ListForStar(ctx, starID)
}
