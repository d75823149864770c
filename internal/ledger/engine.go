package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"baroni/internal/idgen"
)

const txColumns = `id, tracking_id, type, payer_id, receiver_id, amount, payment_mode, status, description, metadata, created_at, updated_at`

type engine struct {
	db *sqlx.DB
}

func NewEngine(db *sqlx.DB) Engine {
	return &engine{db: db}
}

// Create validates the payment, escrows coin funds out of the payer's wallet
// and writes a pending transaction, all inside one database transaction. In
// external mode the amount is assumed collected off-ledger, so no wallet is
// touched here.
func (e *engine) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if params.Amount <= 0 {
		return nil, ErrAmountInvalid
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var payerExists bool
	if err := tx.GetContext(ctx, &payerExists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, params.PayerID); err != nil {
		return nil, err
	}
	if !payerExists {
		return nil, ErrPayerNotFound
	}

	var receiverExists bool
	if err := tx.GetContext(ctx, &receiverExists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, params.ReceiverID); err != nil {
		return nil, err
	}
	if !receiverExists {
		return nil, ErrReceiverNotFound
	}

	if params.PaymentMode == ModeCoin {
		// Escrow at creation: the debit is a single conditional statement, so
		// the balance can never be driven below zero here.
		result, err := tx.ExecContext(ctx,
			`UPDATE users
			 SET wallet_balance = wallet_balance - $1, updated_at = NOW()
			 WHERE id = $2 AND wallet_balance >= $1`,
			params.Amount, params.PayerID,
		)
		if err != nil {
			return nil, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, ErrInsufficientBalance
		}
	}

	trackingID, err := idgen.Unique(ctx, func() string { return idgen.TrackingID("TXN") },
		func(ctx context.Context, candidate string) (bool, error) {
			var taken bool
			err := tx.GetContext(ctx, &taken,
				`SELECT EXISTS(SELECT 1 FROM transactions WHERE tracking_id = $1)`, candidate)
			return taken, err
		})
	if err != nil {
		return nil, err
	}

	metadata := params.Metadata
	if metadata == nil {
		metadata = []byte("{}")
	}

	var transaction Transaction
	err = tx.GetContext(ctx, &transaction,
		`INSERT INTO transactions (tracking_id, type, payer_id, receiver_id, amount, payment_mode, status, description, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, $8)
		 RETURNING `+txColumns,
		trackingID, params.Type, params.PayerID, params.ReceiverID, params.Amount,
		params.PaymentMode, params.Description, metadata,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &transaction, nil
}

// Complete moves a pending transaction to completed and credits the receiver.
// The receiver is credited in both payment modes: coin funds move out of
// escrow, external funds are minted as the credit-on-success side of an
// off-ledger payment.
func (e *engine) Complete(ctx context.Context, transactionID int) (*Transaction, error) {
	return e.transition(ctx, transactionID, StatusPending, StatusCompleted,
		func(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
			return creditWallet(ctx, tx, t.ReceiverID, t.Amount)
		})
}

// Cancel moves a pending transaction to cancelled and returns the amount to
// the payer's wallet. For external mode this converts the unfulfilled
// obligation into a coin credit.
func (e *engine) Cancel(ctx context.Context, transactionID int) (*Transaction, error) {
	return e.transition(ctx, transactionID, StatusPending, StatusCancelled,
		func(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
			return creditWallet(ctx, tx, t.PayerID, t.Amount)
		})
}

// Refund reverses a completed transaction: the receiver is debited even if
// that drives their balance negative, and the payer is made whole.
func (e *engine) Refund(ctx context.Context, transactionID int) (*Transaction, error) {
	return e.transition(ctx, transactionID, StatusCompleted, StatusRefunded,
		func(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
			if err := creditWallet(ctx, tx, t.ReceiverID, -t.Amount); err != nil {
				return err
			}
			return creditWallet(ctx, tx, t.PayerID, t.Amount)
		})
}

// transition locks the transaction row, checks the current status, applies the
// wallet mutation and flips the status, as one atomic unit. Concurrent calls
// on the same id serialize on the row lock; the loser fails the status check.
func (e *engine) transition(ctx context.Context, transactionID int, from, to Status,
	mutate func(ctx context.Context, tx *sqlx.Tx, t *Transaction) error) (*Transaction, error) {

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var transaction Transaction
	err = tx.GetContext(ctx, &transaction,
		`SELECT `+txColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if transaction.Status != from {
		return nil, ErrInvalidStateTransition
	}

	if err := mutate(ctx, tx, &transaction); err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &transaction,
		`UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2
		 RETURNING `+txColumns,
		to, transactionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &transaction, nil
}

// creditWallet applies a signed delta as a single statement. Balances are
// never read-modify-written in two steps.
func creditWallet(ctx context.Context, tx *sqlx.Tx, userID int, delta int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET wallet_balance = wallet_balance + $1, updated_at = NOW() WHERE id = $2`,
		delta, userID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (e *engine) GetByID(ctx context.Context, transactionID int) (*Transaction, error) {
	var transaction Transaction
	err := e.db.GetContext(ctx, &transaction,
		`SELECT `+txColumns+` FROM transactions WHERE id = $1`, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (e *engine) ListForUser(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var transactions []Transaction
	err := e.db.SelectContext(ctx, &transactions,
		`SELECT `+txColumns+` FROM transactions
		 WHERE payer_id = $1 OR receiver_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

func (e *engine) Balance(ctx context.Context, userID int) (int64, error) {
	var balance int64
	err := e.db.GetContext(ctx, &balance,
		`SELECT wallet_balance FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrPayerNotFound
		}
		return 0, err
	}
	return balance, nil
}
