package appointment

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"baroni/internal/auth"
	"baroni/internal/ledger"
	"baroni/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, fanID, starID int, scheduledAt time.Time, note string, fee int64, transactionID *int) (*Appointment, error) {
	args := m.Called(ctx, fanID, starID, scheduledAt, note, fee, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id int, from, to Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockRepository) ListForFan(ctx context.Context, fanID int) ([]Appointment, error) {
	args := m.Called(ctx, fanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

func (m *MockRepository) ListForStar(ctx context.Context, starID int) ([]Appointment, error) {
	args := m.Called(ctx, starID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

// MockEngine is a mock implementation of ledger.Engine
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Create(ctx context.Context, params ledger.CreateParams) (*ledger.Transaction, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockEngine) Complete(ctx context.Context, transactionID int) (*ledger.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockEngine) Cancel(ctx context.Context, transactionID int) (*ledger.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockEngine) Refund(ctx context.Context, transactionID int) (*ledger.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockEngine) GetByID(ctx context.Context, transactionID int) (*ledger.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockEngine) ListForUser(ctx context.Context, userID, limit, offset int) ([]ledger.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockEngine) Balance(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID int, title, body string) error {
	args := m.Called(ctx, userID, title, body)
	return args.Error(0)
}

func newTestService() (*MockRepository, *MockEngine, *MockNotifier, Service) {
	repo := new(MockRepository)
	engine := new(MockEngine)
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return repo, engine, notifier, NewService(repo, engine, notifier)
}

func intPtr(v int) *int { return &v }

func TestService_Book(t *testing.T) {
	scheduledAt := time.Now().Add(24 * time.Hour)

	t.Run("books with escrowed payment", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		engine.On("Create", mock.Anything, ledger.CreateParams{
			Type:        ledger.TypeAppointment,
			PayerID:     1,
			ReceiverID:  2,
			Amount:      50,
			PaymentMode: ledger.ModeCoin,
			Description: "appointment booking",
		}).Return(&ledger.Transaction{ID: 10, Status: ledger.StatusPending}, nil)
		repo.On("Create", mock.Anything, 1, 2, scheduledAt, "hi", int64(50), intPtr(10)).
			Return(&Appointment{ID: 5, FanID: 1, StarID: 2, Fee: 50, Status: StatusPending, TransactionID: intPtr(10)}, nil)

		appointment, err := svc.Book(context.Background(), 1, 2, scheduledAt, "hi", 50)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, appointment.Status)
		repo.AssertExpectations(t)
		engine.AssertExpectations(t)
	})

	t.Run("zero fee books without transaction", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		repo.On("Create", mock.Anything, 1, 2, scheduledAt, "", int64(0), (*int)(nil)).
			Return(&Appointment{ID: 6, FanID: 1, StarID: 2, Status: StatusPending}, nil)

		appointment, err := svc.Book(context.Background(), 1, 2, scheduledAt, "", 0)
		require.NoError(t, err)
		assert.Nil(t, appointment.TransactionID)
		engine.AssertNotCalled(t, "Create")
	})

	t.Run("rejects past schedule", func(t *testing.T) {
		_, engine, _, svc := newTestService()

		_, err := svc.Book(context.Background(), 1, 2, time.Now().Add(-time.Hour), "", 50)
		assert.ErrorIs(t, err, ErrScheduleInPast)
		engine.AssertNotCalled(t, "Create")
	})

	t.Run("insufficient balance surfaces", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		engine.On("Create", mock.Anything, mock.Anything).Return(nil, ledger.ErrInsufficientBalance)

		_, err := svc.Book(context.Background(), 1, 2, scheduledAt, "", 500)
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("booking write failure cancels the payment", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		engine.On("Create", mock.Anything, mock.Anything).
			Return(&ledger.Transaction{ID: 10, Status: ledger.StatusPending}, nil)
		repo.On("Create", mock.Anything, 1, 2, scheduledAt, "", int64(50), intPtr(10)).
			Return(nil, assert.AnError)
		engine.On("Cancel", mock.Anything, 10).
			Return(&ledger.Transaction{ID: 10, Status: ledger.StatusCancelled}, nil)

		_, err := svc.Book(context.Background(), 1, 2, scheduledAt, "", 50)
		assert.Error(t, err)
		engine.AssertCalled(t, "Cancel", mock.Anything, 10)
	})
}

func TestService_Approve(t *testing.T) {
	pending := func() *Appointment {
		return &Appointment{
			ID: 5, FanID: 1, StarID: 2, Fee: 50,
			Status: StatusPending, TransactionID: intPtr(10),
			ScheduledAt: time.Now().Add(24 * time.Hour),
		}
	}

	t.Run("star approval completes payment", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		repo.On("GetByID", mock.Anything, 5).Return(pending(), nil)
		engine.On("Complete", mock.Anything, 10).
			Return(&ledger.Transaction{ID: 10, Status: ledger.StatusCompleted}, nil)
		repo.On("UpdateStatus", mock.Anything, 5, StatusPending, StatusApproved).Return(nil)

		appointment, err := svc.Approve(context.Background(), 2, auth.RoleStar, 5)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, appointment.Status)
		engine.AssertExpectations(t)
	})

	t.Run("admin may approve for any star", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		repo.On("GetByID", mock.Anything, 5).Return(pending(), nil)
		engine.On("Complete", mock.Anything, 10).
			Return(&ledger.Transaction{ID: 10, Status: ledger.StatusCompleted}, nil)
		repo.On("UpdateStatus", mock.Anything, 5, StatusPending, StatusApproved).Return(nil)

		_, err := svc.Approve(context.Background(), 99, auth.RoleAdmin, 5)
		require.NoError(t, err)
	})

	t.Run("other star is rejected", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		repo.On("GetByID", mock.Anything, 5).Return(pending(), nil)

		_, err := svc.Approve(context.Background(), 3, auth.RoleStar, 5)
		assert.ErrorIs(t, err, ErrNotYourCall)
		engine.AssertNotCalled(t, "Complete")
	})

	t.Run("already approved conflicts", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		approved := pending()
		approved.Status = StatusApproved
		repo.On("GetByID", mock.Anything, 5).Return(approved, nil)

		_, err := svc.Approve(context.Background(), 2, auth.RoleStar, 5)
		assert.ErrorIs(t, err, ErrStateConflict)
		engine.AssertNotCalled(t, "Complete")
	})
}

func TestService_Reject(t *testing.T) {
	repo, engine, _, svc := newTestService()

	repo.On("GetByID", mock.Anything, 5).Return(&Appointment{
		ID: 5, FanID: 1, StarID: 2, Status: StatusPending, TransactionID: intPtr(10),
	}, nil)
	engine.On("Cancel", mock.Anything, 10).
		Return(&ledger.Transaction{ID: 10, Status: ledger.StatusCancelled}, nil)
	repo.On("UpdateStatus", mock.Anything, 5, StatusPending, StatusRejected).Return(nil)

	appointment, err := svc.Reject(context.Background(), 2, auth.RoleStar, 5)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, appointment.Status)
	engine.AssertExpectations(t)
}

func TestService_Cancel(t *testing.T) {
	t.Run("pending cancel releases escrow", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		repo.On("GetByID", mock.Anything, 5).Return(&Appointment{
			ID: 5, FanID: 1, StarID: 2, Status: StatusPending, TransactionID: intPtr(10),
		}, nil)
		engine.On("Cancel", mock.Anything, 10).
			Return(&ledger.Transaction{ID: 10, Status: ledger.StatusCancelled}, nil)
		repo.On("UpdateStatus", mock.Anything, 5, StatusPending, StatusCancelled).Return(nil)

		appointment, err := svc.Cancel(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, appointment.Status)
		engine.AssertNotCalled(t, "Refund")
	})

	t.Run("approved cancel refunds the completed payment", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		repo.On("GetByID", mock.Anything, 5).Return(&Appointment{
			ID: 5, FanID: 1, StarID: 2, Status: StatusApproved, TransactionID: intPtr(10),
		}, nil)
		engine.On("Refund", mock.Anything, 10).
			Return(&ledger.Transaction{ID: 10, Status: ledger.StatusRefunded}, nil)
		repo.On("UpdateStatus", mock.Anything, 5, StatusApproved, StatusCancelled).Return(nil)

		appointment, err := svc.Cancel(context.Background(), 1, 5)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, appointment.Status)
		engine.AssertNotCalled(t, "Cancel")
	})

	t.Run("another fan is rejected", func(t *testing.T) {
		repo, engine, _, svc := newTestService()

		repo.On("GetByID", mock.Anything, 5).Return(&Appointment{
			ID: 5, FanID: 1, StarID: 2, Status: StatusPending,
		}, nil)

		_, err := svc.Cancel(context.Background(), 7, 5)
		assert.ErrorIs(t, err, ErrNotYourBooking)
		engine.AssertNotCalled(t, "Cancel")
	})

	t.Run("rejected appointment cannot be cancelled", func(t *testing.T) {
		repo, _, _, svc := newTestService()

		repo.On("GetByID", mock.Anything, 5).Return(&Appointment{
			ID: 5, FanID: 1, StarID: 2, Status: StatusRejected,
		}, nil)

		_, err := svc.Cancel(context.Background(), 1, 5)
		assert.ErrorIs(t, err, ErrStateConflict)
	})
}
