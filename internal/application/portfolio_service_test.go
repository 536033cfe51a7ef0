package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/stocks-service/internal/domain"
	"github.com/fintrack/stocks-service/internal/infrastructure/marketdata"
	persistmemory "github.com/fintrack/stocks-service/internal/infrastructure/persistence/memory"
)

// fakeQuotes serves canned lite quotes per symbol; absent symbols fail.
type fakeQuotes struct {
	quotes map[string]marketdata.StockQuote
}

func (f *fakeQuotes) GetQuoteLite(_ context.Context, symbol string) (marketdata.StockQuote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return marketdata.StockQuote{}, domain.ErrProviderUnavailable
	}
	return q, nil
}

func seedLedger(t *testing.T, ledger domain.TransactionRepository, userID string, entries ...domain.Transaction) {
	t.Helper()
	for i := range entries {
		require.NoError(t, ledger.Append(context.Background(), &entries[i]))
	}
}

func buyTx(t *testing.T, userID, symbol, shares, price string) domain.Transaction {
	t.Helper()
	tx, err := domain.NewTransaction(userID, symbol, domain.TransactionTypeBuy, mustDec(t, shares), mustDec(t, price))
	require.NoError(t, err)
	return tx
}

func sellTx(t *testing.T, userID, symbol, shares, price string) domain.Transaction {
	t.Helper()
	tx, err := domain.NewTransaction(userID, symbol, domain.TransactionTypeSell, mustDec(t, shares), mustDec(t, price))
	require.NoError(t, err)
	return tx
}

func mustDec(t *testing.T, s string) domain.Decimal {
	t.Helper()
	d, err := domain.NewDecimalFromString(s)
	require.NoError(t, err)
	return d
}

func TestGetHoldings_ReplaysLedger(t *testing.T) {
	ledger := persistmemory.NewTransactionRepository()
	seedLedger(t, ledger, "user-1",
		buyTx(t, "user-1", "AAPL", "10", "100"),
		buyTx(t, "user-1", "AAPL", "10", "200"),
		buyTx(t, "user-1", "MSFT", "2", "400"),
	)
	s := NewPortfolioService(ledger, &fakeQuotes{})

	holdings, err := s.GetHoldings(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.True(t, holdings[0].Shares.Equal(mustDec(t, "20")))
	assert.True(t, holdings[0].AveragePrice.Equal(mustDec(t, "150")))
	assert.Equal(t, "MSFT", holdings[1].Symbol)
}

func TestGetHoldings_IsolatedPerUser(t *testing.T) {
	ledger := persistmemory.NewTransactionRepository()
	seedLedger(t, ledger, "user-1", buyTx(t, "user-1", "AAPL", "10", "100"))
	seedLedger(t, ledger, "user-2", buyTx(t, "user-2", "TSLA", "5", "200"))
	s := NewPortfolioService(ledger, &fakeQuotes{})

	holdings, err := s.GetHoldings(context.Background(), "user-2")
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "TSLA", holdings[0].Symbol)
}

func TestGetPortfolio_RealizesAgainstLiveQuotes(t *testing.T) {
	ledger := persistmemory.NewTransactionRepository()
	seedLedger(t, ledger, "user-1", buyTx(t, "user-1", "AAPL", "10", "100"))
	quotes := &fakeQuotes{quotes: map[string]marketdata.StockQuote{
		"AAPL": {Symbol: "AAPL", Name: "Apple Inc", Price: 150, Change: 2, ChangePercent: 1.35},
	}}
	s := NewPortfolioService(ledger, quotes)

	lines, err := s.GetPortfolio(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "Apple Inc", line.Name)
	assert.Equal(t, 150.0, line.Price)
	assert.InDelta(t, 1500.0, line.TotalValue, 1e-9)
	assert.InDelta(t, 500.0, line.GainLoss, 1e-9)
	assert.InDelta(t, 50.0, line.GainLossPercent, 1e-9)
}

func TestGetPortfolio_QuoteFailureDegradesToCostBasis(t *testing.T) {
	ledger := persistmemory.NewTransactionRepository()
	seedLedger(t, ledger, "user-1", buyTx(t, "user-1", "AAPL", "10", "100"))
	s := NewPortfolioService(ledger, &fakeQuotes{})

	lines, err := s.GetPortfolio(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)

	// The line is present but flat: valued at cost, zero gain/loss.
	line := lines[0]
	assert.Equal(t, 100.0, line.Price)
	assert.InDelta(t, 1000.0, line.TotalValue, 1e-9)
	assert.Zero(t, line.GainLoss)
	assert.Zero(t, line.GainLossPercent)
}

func TestGetPortfolio_SortedByValueDescending(t *testing.T) {
	ledger := persistmemory.NewTransactionRepository()
	seedLedger(t, ledger, "user-1",
		buyTx(t, "user-1", "AAPL", "1", "100"),
		buyTx(t, "user-1", "MSFT", "10", "400"),
	)
	quotes := &fakeQuotes{quotes: map[string]marketdata.StockQuote{
		"AAPL": {Symbol: "AAPL", Price: 150},
		"MSFT": {Symbol: "MSFT", Price: 420},
	}}
	s := NewPortfolioService(ledger, quotes)

	lines, err := s.GetPortfolio(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "MSFT", lines[0].Symbol)
	assert.Equal(t, "AAPL", lines[1].Symbol)
}

func TestGetPortfolio_EmptyLedger(t *testing.T) {
	s := NewPortfolioService(persistmemory.NewTransactionRepository(), &fakeQuotes{})

	lines, err := s.GetPortfolio(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
