package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs read-modify-write sequences atomically
type TransactionManager interface {
	// ExecTx executes fn within a transaction; fn's ctx carries the tx
	ExecTx(ctx context.Context, fn TxFn) error
}
