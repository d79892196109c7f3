package shared

import (
	"context"

	"pharmex/internal/infra/repository"
	"pharmex/internal/pkg/errs"
)

var (
	ErrTransactionBegin  = errs.New("failed to begin transaction")
	ErrTransactionCommit = errs.New("failed to commit transaction")
)

// TxRunner runs fn inside a database transaction; the repository.DBTX handed
// to fn is transaction-scoped. Results travel out via closure capture.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(db repository.DBTX) error) error
}
