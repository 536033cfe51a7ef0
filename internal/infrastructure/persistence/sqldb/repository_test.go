package sqldb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/stocks-service/internal/domain"
)

func newMockRepository(t *testing.T, dialect Dialect) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(New(db, dialect)), mock
}

func testTransaction(t *testing.T) domain.Transaction {
	t.Helper()
	shares, err := domain.NewDecimalFromString("6.66")
	require.NoError(t, err)
	price, err := domain.NewDecimalFromString("150")
	require.NoError(t, err)

	tx, err := domain.NewTransaction("user-1", "AAPL", domain.TransactionTypeBuy, shares, price)
	require.NoError(t, err)
	return tx
}

func TestRepository_Append(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})
	tx := testTransaction(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(tx.ID, tx.UserID, tx.Symbol, "buy",
			tx.Shares, tx.PricePerShare, tx.TotalAmount,
			tx.TransactionDate, tx.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Append(context.Background(), &tx)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Append_RollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})
	tx := testTransaction(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Append(context.Background(), &tx)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func transactionRows(created time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "symbol", "type", "shares", "price_per_share", "total_amount", "transaction_date", "created_at",
	}).
		AddRow("tx-1", "user-1", "AAPL", "buy", "10", "100", "1000", created, created).
		AddRow("tx-2", "user-1", "AAPL", "sell", "5", "120", "600", created.Add(time.Hour), created.Add(time.Hour))
}

func TestRepository_ListByUserAsc(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})
	created := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery("ORDER BY created_at ASC, id ASC").
		WithArgs("user-1").
		WillReturnRows(transactionRows(created))

	transactions, err := repo.ListByUserAsc(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	first := transactions[0]
	assert.Equal(t, "tx-1", first.ID)
	assert.Equal(t, domain.TransactionTypeBuy, first.Type)
	assert.Equal(t, "10", first.Shares.String())
	assert.Equal(t, created, first.CreatedAt)

	assert.Equal(t, domain.TransactionTypeSell, transactions[1].Type)
}

func TestRepository_ListByUserDesc(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})
	created := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery("FETCH FIRST \\$2 ROWS ONLY").
		WithArgs("user-1", 25).
		WillReturnRows(transactionRows(created))

	transactions, err := repo.ListByUserDesc(context.Background(), "user-1", 25)
	require.NoError(t, err)
	assert.Len(t, transactions, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListQueryError(t *testing.T) {
	repo, mock := newMockRepository(t, &PostgresDialect{})

	mock.ExpectQuery("FROM transactions").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListByUserAsc(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestRepository_RebindForOracle(t *testing.T) {
	repo, _ := newMockRepository(t, &OracleDialect{})

	query := repo.rebind("WHERE user_id = $1 FETCH FIRST $2 ROWS ONLY")
	assert.Equal(t, "WHERE user_id = :1 FETCH FIRST :2 ROWS ONLY", query)
}

func TestRepository_RebindNoopForPostgres(t *testing.T) {
	repo, _ := newMockRepository(t, &PostgresDialect{})

	query := repo.rebind("WHERE user_id = $1")
	assert.Equal(t, "WHERE user_id = $1", query)
}
