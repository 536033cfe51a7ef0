package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fintrack/stocks-service/internal/domain"
	"github.com/fintrack/stocks-service/internal/infrastructure/marketdata"
)

// QuoteProvider is the slice of the market data service the portfolio
// needs: one lightweight quote per held symbol.
type QuoteProvider interface {
	GetQuoteLite(ctx context.Context, symbol string) (marketdata.StockQuote, error)
}

// PortfolioLine is one holding realized against a live quote. Derived,
// response-only; never persisted.
type PortfolioLine struct {
	Symbol          string         `json:"symbol"`
	Name            string         `json:"name"`
	Shares          domain.Decimal `json:"shares"`
	AveragePrice    domain.Decimal `json:"averagePrice"`
	TotalInvested   domain.Decimal `json:"totalInvested"`
	Price           float64        `json:"price"`
	Change          float64        `json:"change"`
	ChangePercent   float64        `json:"changePercent"`
	TotalValue      float64        `json:"totalValue"`
	GainLoss        float64        `json:"gainLoss"`
	GainLossPercent float64        `json:"gainLossPercent"`
}

// PortfolioService reconstructs holdings from the ledger and realizes them
// against live quotes. There is no stored position record anywhere; every
// read replays the user's transactions.
type PortfolioService struct {
	ledger domain.TransactionRepository
	quotes QuoteProvider
}

func NewPortfolioService(ledger domain.TransactionRepository, quotes QuoteProvider) *PortfolioService {
	return &PortfolioService{
		ledger: ledger,
		quotes: quotes,
	}
}

// GetHoldings replays the user's full ledger, oldest first, into current
// per-symbol share counts and cost basis.
func (s *PortfolioService) GetHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	transactions, err := s.ledger.ListByUserAsc(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading ledger for user %s: %w", userID, err)
	}

	holdings, err := domain.ComputeHoldings(transactions)
	if err != nil {
		return nil, fmt.Errorf("replaying ledger for user %s: %w", userID, err)
	}

	return holdings, nil
}

// GetPortfolio realizes each holding with a live quote. A per-symbol quote
// failure degrades that line to its cost basis (zero gain/loss) rather
// than omitting it. Lines are sorted largest position first.
func (s *PortfolioService) GetPortfolio(ctx context.Context, userID string) ([]PortfolioLine, error) {
	holdings, err := s.GetHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]PortfolioLine, 0, len(holdings))
	for _, h := range holdings {
		line := PortfolioLine{
			Symbol:        h.Symbol,
			Name:          h.Symbol,
			Shares:        h.Shares,
			AveragePrice:  h.AveragePrice,
			TotalInvested: h.TotalInvested,
		}

		shares := h.Shares.Float64()
		invested := h.TotalInvested.Float64()

		quote, err := s.quotes.GetQuoteLite(ctx, h.Symbol)
		if err != nil {
			slog.WarnContext(ctx, "quote unavailable, reporting holding at cost basis",
				"symbol", h.Symbol, "error", err)
			line.Price = h.AveragePrice.Float64()
			line.TotalValue = invested
		} else {
			line.Name = quote.Name
			line.Price = quote.Price
			line.Change = quote.Change
			line.ChangePercent = quote.ChangePercent
			line.TotalValue = shares * quote.Price
			line.GainLoss = line.TotalValue - invested
			if invested != 0 {
				line.GainLossPercent = line.GainLoss / invested * 100
			}
		}

		lines = append(lines, line)
	}

	// Largest positions first. Display convenience, not a correctness
	// invariant.
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].TotalValue > lines[j].TotalValue
	})

	return lines, nil
}
