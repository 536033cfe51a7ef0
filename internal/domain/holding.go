package domain

import (
	"fmt"
	"sort"
)

// Holding is a derived projection of current shares and cost basis for one
// symbol. It is never persisted; every read replays the user's ledger, so
// the portfolio can not drift from the transactions that produced it.
type Holding struct {
	Symbol        string  `json:"symbol"`
	Shares        Decimal `json:"shares"`
	TotalInvested Decimal `json:"totalInvested"`
	AveragePrice  Decimal `json:"averagePrice"`
}

// ComputeHoldings folds a user's transactions, oldest first, into current
// holdings using average-cost accounting.
//
// Buy:  shares += t.Shares, invested += t.TotalAmount.
// Sell: invested shrinks by the proportion of the position sold, shares
// decrease clamped at zero. A position sold down to zero shares is dropped
// entirely, leaving no residue.
//
// The input must already be in chronological order; replaying out of order
// corrupts the average cost.
func ComputeHoldings(transactions []Transaction) ([]Holding, error) {
	bySymbol := make(map[string]*Holding)
	var order []string

	for _, t := range transactions {
		h, ok := bySymbol[t.Symbol]
		if !ok {
			h = &Holding{Symbol: t.Symbol, Shares: Zero, TotalInvested: Zero, AveragePrice: Zero}
			bySymbol[t.Symbol] = h
			order = append(order, t.Symbol)
		}

		switch t.Type {
		case TransactionTypeBuy:
			shares, err := h.Shares.Add(t.Shares)
			if err != nil {
				return nil, fmt.Errorf("replaying buy for %s: %w", t.Symbol, err)
			}
			invested, err := h.TotalInvested.Add(t.TotalAmount)
			if err != nil {
				return nil, fmt.Errorf("replaying buy for %s: %w", t.Symbol, err)
			}
			h.Shares = shares
			h.TotalInvested = invested

		case TransactionTypeSell:
			// A sell against a zero-share position is a ledger artifact the
			// executor rejects at write time; skip it rather than divide by
			// zero during replay.
			if !h.Shares.IsPositive() {
				continue
			}

			proportion, err := t.Shares.Div(h.Shares)
			if err != nil {
				return nil, fmt.Errorf("replaying sell for %s: %w", t.Symbol, err)
			}
			if proportion.Cmp(NewDecimalFromInt(1)) > 0 {
				proportion = NewDecimalFromInt(1)
			}

			one := NewDecimalFromInt(1)
			remaining, err := one.Sub(proportion)
			if err != nil {
				return nil, fmt.Errorf("replaying sell for %s: %w", t.Symbol, err)
			}
			invested, err := h.TotalInvested.Mul(remaining)
			if err != nil {
				return nil, fmt.Errorf("replaying sell for %s: %w", t.Symbol, err)
			}

			shares, err := h.Shares.Sub(t.Shares)
			if err != nil {
				return nil, fmt.Errorf("replaying sell for %s: %w", t.Symbol, err)
			}
			if shares.Decimal.Negative {
				shares = Zero
			}

			h.Shares = shares
			h.TotalInvested = invested
		}

		if h.Shares.IsPositive() {
			avg, err := h.TotalInvested.Div(h.Shares)
			if err != nil {
				return nil, fmt.Errorf("computing average price for %s: %w", t.Symbol, err)
			}
			h.AveragePrice = avg
		}
	}

	holdings := make([]Holding, 0, len(bySymbol))
	for _, symbol := range order {
		h := bySymbol[symbol]
		if h.Shares.IsPositive() {
			holdings = append(holdings, *h)
		}
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})

	return holdings, nil
}

// FindHolding returns the holding for symbol, if present.
func FindHolding(holdings []Holding, symbol string) (Holding, bool) {
	for _, h := range holdings {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return Holding{}, false
}
