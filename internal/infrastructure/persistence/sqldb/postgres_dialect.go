package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fintrack/stocks-service/internal/domain"
	"github.com/fintrack/stocks-service/internal/infrastructure/persistence/sqldb/migrations"
	"github.com/pressly/goose/v3"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.PostgresFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "postgres"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

func (d *PostgresDialect) InsertTransaction(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, symbol, type, shares, price_per_share, total_amount, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.UserID, t.Symbol, string(t.Type),
		t.Shares, t.PricePerShare, t.TotalAmount,
		t.TransactionDate, t.CreatedAt,
	)
	return err
}
