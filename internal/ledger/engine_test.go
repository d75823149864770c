package ledger

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEngineMock(t *testing.T) (Engine, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	eng := NewEngine(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return eng, mock, closer
}

func txRow(id int, status Status, payerID, receiverID int, amount int64, mode PaymentMode) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "tracking_id", "type", "payer_id", "receiver_id", "amount",
		"payment_mode", "status", "description", "metadata", "created_at", "updated_at",
	}).AddRow(id, "TXN123456", "appointment", payerID, receiverID, amount,
		string(mode), string(status), "", []byte("{}"), now, now)
}

func expectUserExists(mock sqlmock.Sqlmock, userID int, exists bool) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func TestEngine_Create_CoinMode(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	expectUserExists(mock, 1, true)
	expectUserExists(mock, 2, true)
	mock.ExpectExec(`UPDATE users`).
		WithArgs(int64(50), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM transactions WHERE tracking_id = $1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WillReturnRows(txRow(10, StatusPending, 1, 2, 50, ModeCoin))
	mock.ExpectCommit()

	transaction, err := eng.Create(context.Background(), CreateParams{
		Type:        TypeAppointment,
		PayerID:     1,
		ReceiverID:  2,
		Amount:      50,
		PaymentMode: ModeCoin,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, transaction.Status)
	assert.Equal(t, int64(50), transaction.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Create_ExternalModeSkipsDebit(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	expectUserExists(mock, 1, true)
	expectUserExists(mock, 2, true)
	// No wallet update: in external mode the funds are collected off-ledger.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM transactions WHERE tracking_id = $1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WillReturnRows(txRow(11, StatusPending, 1, 2, 200, ModeExternal))
	mock.ExpectCommit()

	transaction, err := eng.Create(context.Background(), CreateParams{
		Type:        TypeCoinPurchase,
		PayerID:     1,
		ReceiverID:  2,
		Amount:      200,
		PaymentMode: ModeExternal,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, transaction.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Create_InsufficientBalance(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	expectUserExists(mock, 1, true)
	expectUserExists(mock, 2, true)
	mock.ExpectExec(`UPDATE users`).
		WithArgs(int64(500), 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	transaction, err := eng.Create(context.Background(), CreateParams{
		Type:        TypeAppointment,
		PayerID:     1,
		ReceiverID:  2,
		Amount:      500,
		PaymentMode: ModeCoin,
	})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, transaction)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Create_InvalidAmount(t *testing.T) {
	eng, _, close := setupEngineMock(t)
	defer close()

	for _, amount := range []int64{0, -10} {
		_, err := eng.Create(context.Background(), CreateParams{
			Type: TypeAppointment, PayerID: 1, ReceiverID: 2,
			Amount: amount, PaymentMode: ModeCoin,
		})
		assert.ErrorIs(t, err, ErrAmountInvalid)
	}
}

func TestEngine_Create_PayerNotFound(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	expectUserExists(mock, 99, false)
	mock.ExpectRollback()

	_, err := eng.Create(context.Background(), CreateParams{
		Type: TypeAppointment, PayerID: 99, ReceiverID: 2,
		Amount: 50, PaymentMode: ModeCoin,
	})
	assert.ErrorIs(t, err, ErrPayerNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Create_ReceiverNotFound(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	expectUserExists(mock, 1, true)
	expectUserExists(mock, 99, false)
	mock.ExpectRollback()

	_, err := eng.Create(context.Background(), CreateParams{
		Type: TypeAppointment, PayerID: 1, ReceiverID: 99,
		Amount: 50, PaymentMode: ModeCoin,
	})
	assert.ErrorIs(t, err, ErrReceiverNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Complete_CreditsReceiver(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE id = \$1 FOR UPDATE`).
		WithArgs(10).
		WillReturnRows(txRow(10, StatusPending, 1, 2, 50, ModeCoin))
	mock.ExpectExec(`UPDATE users SET wallet_balance = wallet_balance \+ \$1`).
		WithArgs(int64(50), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE transactions SET status`).
		WithArgs(StatusCompleted, 10).
		WillReturnRows(txRow(10, StatusCompleted, 1, 2, 50, ModeCoin))
	mock.ExpectCommit()

	transaction, err := eng.Complete(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, transaction.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Complete_AlreadyCompleted(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE id = \$1 FOR UPDATE`).
		WithArgs(10).
		WillReturnRows(txRow(10, StatusCompleted, 1, 2, 50, ModeCoin))
	mock.ExpectRollback()

	_, err := eng.Complete(context.Background(), 10)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Cancel_RefundsPayer(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE id = \$1 FOR UPDATE`).
		WithArgs(10).
		WillReturnRows(txRow(10, StatusPending, 1, 2, 50, ModeCoin))
	mock.ExpectExec(`UPDATE users SET wallet_balance = wallet_balance \+ \$1`).
		WithArgs(int64(50), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE transactions SET status`).
		WithArgs(StatusCancelled, 10).
		WillReturnRows(txRow(10, StatusCancelled, 1, 2, 50, ModeCoin))
	mock.ExpectCommit()

	transaction, err := eng.Cancel(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, transaction.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Cancel_CompletedRejected(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE id = \$1 FOR UPDATE`).
		WithArgs(10).
		WillReturnRows(txRow(10, StatusCompleted, 1, 2, 50, ModeCoin))
	mock.ExpectRollback()

	_, err := eng.Cancel(context.Background(), 10)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Refund_ReversesBothWallets(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE id = \$1 FOR UPDATE`).
		WithArgs(10).
		WillReturnRows(txRow(10, StatusCompleted, 1, 2, 50, ModeCoin))
	// Receiver is debited even if the balance goes negative.
	mock.ExpectExec(`UPDATE users SET wallet_balance = wallet_balance \+ \$1`).
		WithArgs(int64(-50), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET wallet_balance = wallet_balance \+ \$1`).
		WithArgs(int64(50), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE transactions SET status`).
		WithArgs(StatusRefunded, 10).
		WillReturnRows(txRow(10, StatusRefunded, 1, 2, 50, ModeCoin))
	mock.ExpectCommit()

	transaction, err := eng.Refund(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, transaction.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Refund_PendingRejected(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE id = \$1 FOR UPDATE`).
		WithArgs(10).
		WillReturnRows(txRow(10, StatusPending, 1, 2, 50, ModeCoin))
	mock.ExpectRollback()

	_, err := eng.Refund(context.Background(), 10)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_TransitionNotFound(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM transactions WHERE id = \$1 FOR UPDATE`).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := eng.Complete(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngine_Balance(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT wallet_balance FROM users WHERE id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(int64(120)))

	balance, err := eng.Balance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(120), balance)
}

func TestEngine_ListForUser(t *testing.T) {
	eng, mock, close := setupEngineMock(t)
	defer close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "tracking_id", "type", "payer_id", "receiver_id", "amount",
		"payment_mode", "status", "description", "metadata", "created_at", "updated_at",
	}).
		AddRow(2, "TXN222222", "dedication", 1, 3, int64(30), "coin", "completed", "", []byte("{}"), now, now).
		AddRow(1, "TXN111111", "appointment", 1, 2, int64(50), "coin", "pending", "", []byte("{}"), now, now)

	mock.ExpectQuery(`SELECT .+ FROM transactions`).
		WithArgs(1, 50, 0).
		WillReturnRows(rows)

	transactions, err := eng.ListForUser(context.Background(), 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "TXN222222", transactions[0].TrackingID)
}
