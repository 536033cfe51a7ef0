package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fintrack/stocks-service/internal/domain"
)

// TransactionRepository is an in-memory ledger for tests and local runs.
// Append-only, like its SQL counterpart.
type TransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string][]domain.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		transactions: make(map[string][]domain.Transaction),
	}
}

func (r *TransactionRepository) Append(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transactions[t.UserID] = append(r.transactions[t.UserID], *t)
	return nil
}

func (r *TransactionRepository) ListByUserAsc(ctx context.Context, userID string) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]domain.Transaction(nil), r.transactions[userID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TransactionRepository) ListByUserDesc(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]domain.Transaction(nil), r.transactions[userID]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ domain.TransactionRepository = (*TransactionRepository)(nil)
