package marketdata

import "context"

// StockQuote is the canonical quote shape every provider response is
// normalized into. Provider-specific payloads never leave this package's
// subpackages. Quotes are ephemeral display data, so plain float64 fields
// are used; ledger money is handled separately with decimals.
type StockQuote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	AvgVolume     int64     `json:"avgVolume"`
	WeekHigh52    float64   `json:"weekHigh52"`
	WeekLow52     float64   `json:"weekLow52"`
	WeekChange52  float64   `json:"weekChange52"`
	Chart         []float64 `json:"chart"`
}

// IsUsable reports whether the quote carries a live price. Providers
// occasionally answer 200 with an all-zero body for unknown symbols; such a
// quote must trigger the fallback chain instead of being served.
func (q StockQuote) IsUsable() bool {
	return q.Price > 0
}

// CompanyProfile is the canonical company description from the primary
// provider's profile endpoint.
type CompanyProfile struct {
	Symbol string
	Name   string
}

// CandleSeries is a daily OHLCV history used to enrich quotes with 52-week
// statistics and sparkline data.
type CandleSeries struct {
	Close  []float64
	High   []float64
	Low    []float64
	Volume []int64
}

// SymbolMatch is one result from a symbol search.
type SymbolMatch struct {
	Symbol      string
	Description string
	Type        string
}

// PrimaryProvider is the preferred market-data source. Its endpoints are
// fine-grained (quote, profile, candles, search) and subject to a hard
// per-minute call budget, which the batch scheduler protects.
type PrimaryProvider interface {
	Quote(ctx context.Context, symbol string) (StockQuote, error)
	Profile(ctx context.Context, symbol string) (CompanyProfile, error)
	Candles(ctx context.Context, symbol string, days int) (CandleSeries, error)
	SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error)
}

// FallbackProvider is the resilience fallback. It exposes coarser,
// already-aggregated endpoints with an equivalent but not identical shape;
// its client normalizes into the same canonical StockQuote.
type FallbackProvider interface {
	QuoteBySymbol(ctx context.Context, symbol string) (StockQuote, error)
	MarketIndices(ctx context.Context) ([]StockQuote, error)
	TrendingStocks(ctx context.Context, limit int) ([]StockQuote, error)
	Search(ctx context.Context, query string, limit int) ([]StockQuote, error)
}
