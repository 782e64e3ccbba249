package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager composes several repository calls into one
// all-or-nothing unit of work. The trash lifecycle depends on this: folder
// writes and leaf writes must either both commit or both roll back.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
