package domain

import "context"

// TransactionRepository is the append-only ledger store. There is
// deliberately no update or delete: transactions are immutable once written.
// All methods accept context.Context for timeout and cancellation
// propagation.
type TransactionRepository interface {
	// Append writes one new ledger entry.
	Append(ctx context.Context, t *Transaction) error

	// ListByUserAsc returns all of a user's transactions oldest first,
	// the replay order the holdings fold depends on.
	ListByUserAsc(ctx context.Context, userID string) ([]Transaction, error)

	// ListByUserDesc returns up to limit of a user's transactions newest
	// first, for history views.
	ListByUserDesc(ctx context.Context, userID string, limit int) ([]Transaction, error)
}
