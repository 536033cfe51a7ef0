package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fintrack/stocks-service/internal/domain"
	"github.com/fintrack/stocks-service/internal/infrastructure/persistence/sqldb/migrations"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

func (d *OracleDialect) Migrate(ctx context.Context, db *sql.DB) error {
	// Goose does not support Oracle natively in a way that is easy to
	// cross-compile with go-ora, so the migration script is read from the
	// embedded FS and executed statement by statement.
	content, err := migrations.OracleFS.ReadFile("oracle/20240101000000_init.sql")
	if err != nil {
		return fmt.Errorf("reading migration file: %w", err)
	}

	// Statements are separated by '/' as is standard in Oracle scripts.
	statements := strings.Split(string(content), "/")

	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// ORA-00955: name is already used by an existing object
			if !strings.Contains(err.Error(), "ORA-00955") {
				return fmt.Errorf("migrating: %s: %w", stmt, err)
			}
		}
	}
	return nil
}

func (d *OracleDialect) InsertTransaction(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, symbol, type, shares, price_per_share, total_amount, transaction_date, created_at)
		VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9)
	`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.UserID, t.Symbol, string(t.Type),
		t.Shares, t.PricePerShare, t.TotalAmount,
		t.TransactionDate, t.CreatedAt,
	)
	return err
}
