package ledger

import "context"

// Engine is the only writer of users.wallet_balance. Every mutation runs as a
// single database transaction spanning the ledger row and the wallet(s) it
// touches; a failed operation leaves nothing behind.
type Engine interface {
	Create(ctx context.Context, params CreateParams) (*Transaction, error)
	Complete(ctx context.Context, transactionID int) (*Transaction, error)
	Cancel(ctx context.Context, transactionID int) (*Transaction, error)
	Refund(ctx context.Context, transactionID int) (*Transaction, error)

	GetByID(ctx context.Context, transactionID int) (*Transaction, error)
	ListForUser(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
	Balance(ctx context.Context, userID int) (int64, error)
}
