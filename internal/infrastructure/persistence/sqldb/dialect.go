package sqldb

import (
	"context"
	"database/sql"

	"github.com/fintrack/stocks-service/internal/domain"
)

// Dialect isolates the SQL differences between the supported databases:
// migrations and placeholder style. The ledger schema itself is identical.
type Dialect interface {
	Name() string
	Migrate(ctx context.Context, db *sql.DB) error
	InsertTransaction(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
}
