package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fintrack/stocks-service/internal/domain"
)

// Repository is the durable, append-only ledger. There is deliberately no
// UPDATE or DELETE on transactions anywhere in this file.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Append(ctx context.Context, t *domain.Transaction) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := r.db.Dialect.InsertTransaction(ctx, tx, t); err != nil {
			slog.Error("Failed to append transaction", "transaction_id", t.ID, "error", err)
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
}

func (r *Repository) ListByUserAsc(ctx context.Context, userID string) ([]domain.Transaction, error) {
	query := `
        SELECT id, user_id, symbol, type, shares, price_per_share, total_amount, transaction_date, created_at
        FROM transactions
        WHERE user_id = $1
        ORDER BY created_at ASC, id ASC
    `
	return r.list(ctx, r.rebind(query), userID)
}

func (r *Repository) ListByUserDesc(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	// FETCH FIRST is standard SQL and works on both supported databases.
	query := `
        SELECT id, user_id, symbol, type, shares, price_per_share, total_amount, transaction_date, created_at
        FROM transactions
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        FETCH FIRST $2 ROWS ONLY
    `
	return r.list(ctx, r.rebind(query), userID, limit)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("Failed to query transactions", "error", err)
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			slog.Error("Failed to close rows", "error", err)
		}
	}(rows)

	var transactions []domain.Transaction

	for rows.Next() {
		var t domain.Transaction
		var txType string
		var txDate, createdAt time.Time

		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Symbol, &txType,
			&t.Shares, &t.PricePerShare, &t.TotalAmount,
			&txDate, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		t.Type = domain.TransactionType(txType)
		t.TransactionDate = txDate
		t.CreatedAt = createdAt
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *Repository) rebind(query string) string {
	if r.db.Dialect.Name() == "oracle" {
		for i := 1; i <= 10; i++ {
			query = strings.ReplaceAll(query, fmt.Sprintf("$%d", i), fmt.Sprintf(":%d", i))
		}
	}
	return query
}

var _ domain.TransactionRepository = (*Repository)(nil)
