package ledger

import "errors"

var (
	ErrAmountInvalid          = errors.New("amount must be positive")
	ErrPayerNotFound          = errors.New("payer not found")
	ErrReceiverNotFound       = errors.New("receiver not found")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrWalletNotFound         = errors.New("wallet owner not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidStateTransition = errors.New("invalid transaction state transition")
)
