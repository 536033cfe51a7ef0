package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTransaction(t *testing.T, symbol string, txType TransactionType, shares, price string) Transaction {
	t.Helper()
	tx, err := NewTransaction("user-1", symbol, txType, mustDecimal(t, shares), mustDecimal(t, price))
	require.NoError(t, err)
	return tx
}

func TestComputeHoldings_AverageCost(t *testing.T) {
	// 10 shares at $100, then 10 shares at $200: 20 shares, $3000 invested,
	// $150 average.
	transactions := []Transaction{
		mustTransaction(t, "AAPL", TransactionTypeBuy, "10", "100"),
		mustTransaction(t, "AAPL", TransactionTypeBuy, "10", "200"),
	}

	holdings, err := ComputeHoldings(transactions)
	require.NoError(t, err)
	require.Len(t, holdings, 1)

	h := holdings[0]
	assert.Equal(t, "AAPL", h.Symbol)
	assert.True(t, h.Shares.Equal(mustDecimal(t, "20")))
	assert.True(t, h.TotalInvested.Equal(mustDecimal(t, "3000")))
	assert.True(t, h.AveragePrice.Equal(mustDecimal(t, "150")))
}

func TestComputeHoldings_SellShrinksCostBasisProportionally(t *testing.T) {
	// After selling half of a 20-share, $3000 position the invested amount
	// halves too; the sale price does not touch the cost basis.
	transactions := []Transaction{
		mustTransaction(t, "AAPL", TransactionTypeBuy, "10", "100"),
		mustTransaction(t, "AAPL", TransactionTypeBuy, "10", "200"),
		mustTransaction(t, "AAPL", TransactionTypeSell, "10", "500"),
	}

	holdings, err := ComputeHoldings(transactions)
	require.NoError(t, err)
	require.Len(t, holdings, 1)

	h := holdings[0]
	assert.True(t, h.Shares.Equal(mustDecimal(t, "10")))
	assert.True(t, h.TotalInvested.Equal(mustDecimal(t, "1500")))
	assert.True(t, h.AveragePrice.Equal(mustDecimal(t, "150")))
}

func TestComputeHoldings_FullExitLeavesNoResidue(t *testing.T) {
	transactions := []Transaction{
		mustTransaction(t, "TSLA", TransactionTypeBuy, "5", "200"),
		mustTransaction(t, "TSLA", TransactionTypeSell, "5", "250"),
		mustTransaction(t, "MSFT", TransactionTypeBuy, "2", "400"),
	}

	holdings, err := ComputeHoldings(transactions)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "MSFT", holdings[0].Symbol)
}

func TestComputeHoldings_OversellClampsAtZero(t *testing.T) {
	// An oversell in the ledger clamps shares at zero instead of going
	// negative, and the emptied position disappears.
	transactions := []Transaction{
		mustTransaction(t, "NVDA", TransactionTypeBuy, "3", "100"),
		mustTransaction(t, "NVDA", TransactionTypeSell, "10", "100"),
	}

	holdings, err := ComputeHoldings(transactions)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestComputeHoldings_SellWithoutPositionIsSkipped(t *testing.T) {
	transactions := []Transaction{
		mustTransaction(t, "AMZN", TransactionTypeSell, "5", "100"),
		mustTransaction(t, "AMZN", TransactionTypeBuy, "2", "150"),
	}

	holdings, err := ComputeHoldings(transactions)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Shares.Equal(mustDecimal(t, "2")))
	assert.True(t, holdings[0].TotalInvested.Equal(mustDecimal(t, "300")))
}

func TestComputeHoldings_SortedBySymbol(t *testing.T) {
	transactions := []Transaction{
		mustTransaction(t, "MSFT", TransactionTypeBuy, "1", "400"),
		mustTransaction(t, "AAPL", TransactionTypeBuy, "1", "150"),
		mustTransaction(t, "GOOGL", TransactionTypeBuy, "1", "170"),
	}

	holdings, err := ComputeHoldings(transactions)
	require.NoError(t, err)
	require.Len(t, holdings, 3)
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.Equal(t, "GOOGL", holdings[1].Symbol)
	assert.Equal(t, "MSFT", holdings[2].Symbol)
}

func TestComputeHoldings_Empty(t *testing.T) {
	holdings, err := ComputeHoldings(nil)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestFindHolding(t *testing.T) {
	holdings := []Holding{
		{Symbol: "AAPL", Shares: mustDecimal(t, "5")},
		{Symbol: "MSFT", Shares: mustDecimal(t, "2")},
	}

	h, ok := FindHolding(holdings, "MSFT")
	assert.True(t, ok)
	assert.Equal(t, "MSFT", h.Symbol)

	_, ok = FindHolding(holdings, "TSLA")
	assert.False(t, ok)
}
