package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fintrack/stocks-service/internal/domain"
)

const (
	shareScale          = 2
	maxTransactionLimit = 100
)

// MaxSellResult reports how much of a symbol a user can liquidate right
// now: current shares and their value at the live price.
type MaxSellResult struct {
	Shares domain.Decimal `json:"shares"`
	Value  float64        `json:"value"`
	Price  float64        `json:"price"`
}

// TransactionService validates and appends buy/sell events to the ledger.
// Appends are the only mutation; the sell-side solvency check recomputes
// holdings fresh from the ledger, so no compensating logic is needed.
type TransactionService struct {
	ledger    domain.TransactionRepository
	portfolio *PortfolioService
	quotes    QuoteProvider
}

func NewTransactionService(ledger domain.TransactionRepository, portfolio *PortfolioService, quotes QuoteProvider) *TransactionService {
	return &TransactionService{
		ledger:    ledger,
		portfolio: portfolio,
		quotes:    quotes,
	}
}

// Execute turns a currency amount at a given price into a share quantity
// and appends the resulting transaction. Shares are truncated to two
// decimal places; a sell is rejected before any append when it exceeds the
// user's current holdings.
func (s *TransactionService) Execute(ctx context.Context, userID, symbol string, txType domain.TransactionType, amount, price domain.Decimal) (domain.Transaction, error) {
	if txType != domain.TransactionTypeBuy && txType != domain.TransactionTypeSell {
		return domain.Transaction{}, fmt.Errorf("%w: transaction type must be buy or sell", domain.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return domain.Transaction{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}
	if !price.IsPositive() {
		return domain.Transaction{}, fmt.Errorf("%w: price must be positive", domain.ErrInvalidArgument)
	}

	rawShares, err := amount.Div(price)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("computing shares: %w", err)
	}
	shares, err := rawShares.RoundDown(shareScale)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("rounding shares: %w", err)
	}
	if !shares.IsPositive() {
		return domain.Transaction{}, fmt.Errorf("%w: amount too small to purchase any shares at this price", domain.ErrInvalidArgument)
	}

	if txType == domain.TransactionTypeSell {
		if err := s.checkSolvency(ctx, userID, symbol, shares); err != nil {
			return domain.Transaction{}, err
		}
	}

	transaction, err := domain.NewTransaction(userID, symbol, txType, shares, price)
	if err != nil {
		return domain.Transaction{}, err
	}

	if err := s.ledger.Append(ctx, &transaction); err != nil {
		return domain.Transaction{}, fmt.Errorf("appending transaction: %w", err)
	}

	// Audit trail for executed trades.
	slog.InfoContext(ctx, "trade executed",
		"user_id", userID,
		"symbol", symbol,
		"type", txType,
		"shares", shares.String(),
		"price", price.String(),
		"total", transaction.TotalAmount.String(),
	)

	return transaction, nil
}

// checkSolvency rejects a sell that exceeds current holdings before the
// ledger is touched.
func (s *TransactionService) checkSolvency(ctx context.Context, userID, symbol string, shares domain.Decimal) error {
	holdings, err := s.portfolio.GetHoldings(ctx, userID)
	if err != nil {
		return err
	}

	holding, ok := domain.FindHolding(holdings, symbol)
	if !ok {
		return fmt.Errorf("%w: no shares of %s held", domain.ErrInsufficientHoldings, symbol)
	}
	if shares.Cmp(holding.Shares) > 0 {
		shortfall, err := shares.Sub(holding.Shares)
		if err != nil {
			return fmt.Errorf("computing shortfall: %w", err)
		}
		return fmt.Errorf("%w: cannot sell %s shares of %s, only %s held (short %s)",
			domain.ErrInsufficientHoldings, shares.String(), symbol, holding.Shares.String(), shortfall.String())
	}

	return nil
}

// MaxSellAmount reports the user's current position in a symbol valued at
// the live quote, falling back to the cost-basis price when the quote is
// unavailable. An unheld symbol reads as zero, not as an error.
func (s *TransactionService) MaxSellAmount(ctx context.Context, userID, symbol string) (MaxSellResult, error) {
	holdings, err := s.portfolio.GetHoldings(ctx, userID)
	if err != nil {
		return MaxSellResult{}, err
	}

	holding, ok := domain.FindHolding(holdings, symbol)
	if !ok {
		return MaxSellResult{Shares: domain.Zero}, nil
	}

	price := holding.AveragePrice.Float64()
	if quote, err := s.quotes.GetQuoteLite(ctx, symbol); err == nil {
		price = quote.Price
	} else {
		slog.WarnContext(ctx, "quote unavailable for max-sell, using cost basis",
			"symbol", symbol, "error", err)
	}

	return MaxSellResult{
		Shares: holding.Shares,
		Value:  holding.Shares.Float64() * price,
		Price:  price,
	}, nil
}

// ListTransactions returns the user's most recent ledger entries.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if limit < 1 || limit > maxTransactionLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidArgument, maxTransactionLimit)
	}

	transactions, err := s.ledger.ListByUserDesc(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions for user %s: %w", userID, err)
	}

	return transactions, nil
}
