package liveshow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"baroni/internal/idgen"
	"baroni/internal/ledger"
	"baroni/internal/logger"
	"baroni/internal/metrics"
)

var (
	ErrNotYourShow   = errors.New("live show belongs to another star")
	ErrShowNotActive = errors.New("live show is not active")
	ErrAlreadyJoined = errors.New("fan already joined this show")
	ErrOwnShow       = errors.New("stars cannot join their own show")
)

type Notifier interface {
	Notify(ctx context.Context, userID int, title, body string) error
}

type Service interface {
	Host(ctx context.Context, starID int, title string, scheduledAt time.Time, hostingFee, attendanceFee int64) (*LiveShow, error)
	Join(ctx context.Context, fanID, showID int) (*Attendance, error)
	// CancelShow refunds the hosting fee and every attendee, best-effort per
	// attendee.
	CancelShow(ctx context.Context, starID, showID int) (*BatchResult, error)
	// CompleteShow settles the hosting fee and every attendance payment,
	// best-effort per attendee.
	CompleteShow(ctx context.Context, starID, showID int) (*BatchResult, error)
	GetByCode(ctx context.Context, code string) (*LiveShow, error)
	ListShows(ctx context.Context, onlyActive bool) ([]LiveShow, error)
}

type service struct {
	repo              Repository
	engine            ledger.Engine
	notifier          Notifier
	platformAccountID int
}

func NewService(repo Repository, engine ledger.Engine, notifier Notifier, platformAccountID int) Service {
	return &service{
		repo:              repo,
		engine:            engine,
		notifier:          notifier,
		platformAccountID: platformAccountID,
	}
}

// Host creates an immediately-active show. The hosting fee is escrowed from
// the star toward the platform account and stays pending until the show
// completes or is cancelled.
func (s *service) Host(ctx context.Context, starID int, title string, scheduledAt time.Time, hostingFee, attendanceFee int64) (*LiveShow, error) {
	code, err := idgen.Unique(ctx, idgen.ShowCode, s.repo.CodeExists)
	if err != nil {
		return nil, err
	}

	var transactionID *int
	if hostingFee > 0 {
		transaction, err := s.engine.Create(ctx, ledger.CreateParams{
			Type:        ledger.TypeLiveShowHosting,
			PayerID:     starID,
			ReceiverID:  s.platformAccountID,
			Amount:      hostingFee,
			PaymentMode: ledger.ModeCoin,
			Description: "live show hosting: " + title,
		})
		if err != nil {
			return nil, err
		}
		transactionID = &transaction.ID
	}

	show, err := s.repo.CreateShow(ctx, starID, code, title, scheduledAt, hostingFee, attendanceFee, transactionID)
	if err != nil {
		if transactionID != nil {
			if _, cancelErr := s.engine.Cancel(ctx, *transactionID); cancelErr != nil {
				logger.Errorf("orphaned hosting transaction %d: %v", *transactionID, cancelErr)
			}
		}
		return nil, err
	}

	return show, nil
}

func (s *service) Join(ctx context.Context, fanID, showID int) (*Attendance, error) {
	show, err := s.repo.GetShowByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	if show.Status != ShowActive {
		return nil, ErrShowNotActive
	}
	if show.StarID == fanID {
		return nil, ErrOwnShow
	}

	joined, err := s.repo.HasActiveAttendance(ctx, showID, fanID)
	if err != nil {
		return nil, err
	}
	if joined {
		return nil, ErrAlreadyJoined
	}

	var transactionID *int
	if show.AttendanceFee > 0 {
		transaction, err := s.engine.Create(ctx, ledger.CreateParams{
			Type:        ledger.TypeLiveShowAttendance,
			PayerID:     fanID,
			ReceiverID:  show.StarID,
			Amount:      show.AttendanceFee,
			PaymentMode: ledger.ModeCoin,
			Description: "live show ticket: " + show.Title,
		})
		if err != nil {
			return nil, err
		}
		transactionID = &transaction.ID
	}

	attendance, err := s.repo.CreateAttendance(ctx, showID, fanID, transactionID)
	if err != nil {
		if transactionID != nil {
			if _, cancelErr := s.engine.Cancel(ctx, *transactionID); cancelErr != nil {
				logger.Errorf("orphaned attendance transaction %d: %v", *transactionID, cancelErr)
			}
		}
		return nil, err
	}

	metrics.RecordLiveShowJoin()
	_ = s.notifier.Notify(ctx, show.StarID, "New attendee",
		fmt.Sprintf("A fan joined your show %q", show.Title))

	return attendance, nil
}

// CancelShow is a fan-out, not one atomic unit: the hosting refund gates the
// cancellation, but each attendee refund is an independent transaction and a
// failure on one never blocks the rest.
func (s *service) CancelShow(ctx context.Context, starID, showID int) (*BatchResult, error) {
	show, err := s.repo.GetShowByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	if show.StarID != starID {
		return nil, ErrNotYourShow
	}
	if show.Status != ShowActive {
		return nil, ErrShowNotActive
	}

	if show.TransactionID != nil {
		if _, err := s.engine.Cancel(ctx, *show.TransactionID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateShowStatus(ctx, showID, ShowActive, ShowCancelled); err != nil {
		return nil, err
	}

	result := s.fanOut(ctx, showID, AttendanceCancelled, "cancel_show",
		func(ctx context.Context, transactionID int) error {
			_, err := s.engine.Cancel(ctx, transactionID)
			return err
		},
		func(attendance Attendance) {
			_ = s.notifier.Notify(ctx, attendance.FanID, "Show cancelled",
				fmt.Sprintf("%q was cancelled and your ticket was refunded", show.Title))
		})

	return result, nil
}

func (s *service) CompleteShow(ctx context.Context, starID, showID int) (*BatchResult, error) {
	show, err := s.repo.GetShowByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	if show.StarID != starID {
		return nil, ErrNotYourShow
	}
	if show.Status != ShowActive {
		return nil, ErrShowNotActive
	}

	if show.TransactionID != nil {
		if _, err := s.engine.Complete(ctx, *show.TransactionID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateShowStatus(ctx, showID, ShowActive, ShowCompleted); err != nil {
		return nil, err
	}

	result := s.fanOut(ctx, showID, AttendanceCompleted, "complete_show",
		func(ctx context.Context, transactionID int) error {
			_, err := s.engine.Complete(ctx, transactionID)
			return err
		},
		nil)

	return result, nil
}

// fanOut applies op to every active attendance of the show. Each item is its
// own atomic unit; failures are logged, counted and reported, never fatal.
func (s *service) fanOut(ctx context.Context, showID int, to AttendanceStatus, operation string,
	op func(ctx context.Context, transactionID int) error,
	onSuccess func(attendance Attendance)) *BatchResult {

	result := &BatchResult{Succeeded: []int{}, Failed: []FailedItem{}}

	attendances, err := s.repo.ListActiveAttendances(ctx, showID)
	if err != nil {
		logger.Errorf("listing attendances for show %d: %v", showID, err)
		result.Failed = append(result.Failed, FailedItem{AttendanceID: 0, Error: err.Error()})
		return result
	}

	for _, attendance := range attendances {
		if attendance.TransactionID != nil {
			if err := op(ctx, *attendance.TransactionID); err != nil {
				logger.Errorf("%s: attendance %d transaction %d: %v",
					operation, attendance.ID, *attendance.TransactionID, err)
				metrics.RecordFanOutFailure(operation)
				result.Failed = append(result.Failed, FailedItem{
					AttendanceID: attendance.ID,
					Error:        err.Error(),
				})
				continue
			}
		}

		if err := s.repo.UpdateAttendanceStatus(ctx, attendance.ID, AttendanceActive, to); err != nil {
			logger.Errorf("%s: attendance %d status update: %v", operation, attendance.ID, err)
			metrics.RecordFanOutFailure(operation)
			result.Failed = append(result.Failed, FailedItem{
				AttendanceID: attendance.ID,
				Error:        err.Error(),
			})
			continue
		}

		result.Succeeded = append(result.Succeeded, attendance.ID)
		if onSuccess != nil {
			onSuccess(attendance)
		}
	}

	return result
}

func (s *service) GetByCode(ctx context.Context, code string) (*LiveShow, error) {
	return s.repo.GetShowByCode(ctx, code)
}

func (s *service) ListShows(ctx context.Context, onlyActive bool) ([]LiveShow, error) {
	return s.repo.ListShows(ctx, onlyActive)
}
