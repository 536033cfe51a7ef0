package application

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/fintrack/stocks-service/internal/domain"
	"github.com/fintrack/stocks-service/internal/infrastructure/cache"
	"github.com/fintrack/stocks-service/internal/infrastructure/marketdata"
)

const (
	maxTrendingLimit = 50
	maxSearchLimit   = 25
	maxQueryLength   = 50
	chartDays        = 30
	candleDays       = 365
)

// indexNames maps index symbols to display names; the primary provider's
// profile endpoint does not cover indices.
var indexNames = map[string]string{
	"^GSPC": "S&P 500",
	"^DJI":  "Dow Jones Industrial Average",
	"^IXIC": "NASDAQ Composite",
}

var indexSymbols = []string{"^GSPC", "^DJI", "^IXIC"}

// trendingCandidates is the fixed candidate list for the trending endpoint,
// most-watched names first.
var trendingCandidates = []string{
	"AAPL", "GOOGL", "MSFT", "AMZN", "TSLA", "NVDA", "META", "NFLX", "AMD", "ORCL",
	"CRM", "ADBE", "PYPL", "INTC", "CSCO", "UBER", "SHOP", "SNOW", "PLTR", "NET",
	"JNJ", "PG", "KO", "PEP", "WMT", "HD", "MCD", "DIS", "NKE", "V",
	"MA", "JPM", "BAC", "GS", "AXP", "PFE", "MRK", "ABBV", "LLY", "UNH",
	"XOM", "CVX", "CAT", "BA", "GE", "COST", "SBUX", "TSM", "BABA", "COIN",
}

var querySanitizer = regexp.MustCompile(`[^a-zA-Z0-9\s.\-]`)

// directSymbolPattern recognizes queries that look like a ticker typed
// verbatim, which get a direct quote lookup before the fuzzy search.
var directSymbolPattern = regexp.MustCompile(`^[A-Za-z]{1,5}$`)

// MarketDataService orchestrates cache lookup, primary fetch, secondary
// fallback and cache write, and hands callers only the canonical quote
// shape. Callers cannot tell which provider answered.
type MarketDataService struct {
	cache     cache.Cache
	primary   marketdata.PrimaryProvider
	fallback  marketdata.FallbackProvider
	batchSize int
	cooldown  time.Duration
}

// NewMarketDataService wires the service with an explicit cache instance;
// there is no package-level cache singleton.
func NewMarketDataService(c cache.Cache, primary marketdata.PrimaryProvider, fallback marketdata.FallbackProvider) *MarketDataService {
	return &MarketDataService{
		cache:     c,
		primary:   primary,
		fallback:  fallback,
		batchSize: defaultBatchSize,
		cooldown:  defaultCooldown,
	}
}

// GetQuote returns the full quote for a symbol, enriched with 52-week
// statistics and a sparkline when the primary provider's candles are
// available. Chain: cache, primary, fallback.
func (s *MarketDataService) GetQuote(ctx context.Context, symbol string) (marketdata.StockQuote, error) {
	symbol = strings.ToUpper(symbol)
	key := "quote:" + symbol

	if quote, ok := cache.GetJSON[marketdata.StockQuote](ctx, s.cache, key); ok {
		return quote, nil
	}

	quote, err := s.fetchFullQuote(ctx, symbol)
	if err != nil {
		slog.WarnContext(ctx, "primary provider failed, trying fallback", "symbol", symbol, "error", err)
		quote, err = s.fallback.QuoteBySymbol(ctx, symbol)
		if err != nil {
			return marketdata.StockQuote{}, fmt.Errorf("quote for %s: %w", symbol, err)
		}
	}

	cache.SetJSON(ctx, s.cache, key, quote, cache.TTLQuote)
	return quote, nil
}

// GetQuoteLite returns a quote without candle enrichment. It is the
// variant list-shaped operations and the portfolio use, where 52-week
// statistics are not needed and the extra candle call would burn budget.
func (s *MarketDataService) GetQuoteLite(ctx context.Context, symbol string) (marketdata.StockQuote, error) {
	symbol = strings.ToUpper(symbol)
	key := "quote:" + symbol

	if quote, ok := cache.GetJSON[marketdata.StockQuote](ctx, s.cache, key); ok {
		return quote, nil
	}

	quote, err := s.fetchLiteQuote(ctx, symbol)
	if err != nil {
		quote, err = s.fallback.QuoteBySymbol(ctx, symbol)
		if err != nil {
			return marketdata.StockQuote{}, fmt.Errorf("quote for %s: %w", symbol, err)
		}
	}

	cache.SetJSON(ctx, s.cache, key, quote, cache.TTLQuote)
	return quote, nil
}

// GetMarketIndices returns quotes for the major market indices. Each index
// is cached independently; the list is assembled as long as at least one
// index succeeds, otherwise the fallback provider's indices endpoint is
// used wholesale.
func (s *MarketDataService) GetMarketIndices(ctx context.Context) ([]marketdata.StockQuote, error) {
	indices := make([]marketdata.StockQuote, 0, len(indexSymbols))

	for _, symbol := range indexSymbols {
		key := "index:" + symbol

		if quote, ok := cache.GetJSON[marketdata.StockQuote](ctx, s.cache, key); ok {
			indices = append(indices, quote)
			continue
		}

		quote, err := s.fetchLiteQuote(ctx, symbol)
		if err != nil {
			slog.WarnContext(ctx, "failed to fetch index", "symbol", symbol, "error", err)
			continue
		}
		quote.Name = indexNames[symbol]

		cache.SetJSON(ctx, s.cache, key, quote, cache.TTLIndex)
		indices = append(indices, quote)
	}

	if len(indices) > 0 {
		return indices, nil
	}

	slog.WarnContext(ctx, "no index data from primary provider, trying fallback")
	indices, err := s.fallback.MarketIndices(ctx)
	if err != nil {
		return nil, fmt.Errorf("market indices: %w", err)
	}
	return indices, nil
}

// GetTrendingStocks returns quotes for up to limit symbols from the fixed
// candidate list, fetched through the batch scheduler to respect the
// primary provider's rate limit.
func (s *MarketDataService) GetTrendingStocks(ctx context.Context, limit int) ([]marketdata.StockQuote, error) {
	if limit < 1 || limit > maxTrendingLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidArgument, maxTrendingLimit)
	}

	key := fmt.Sprintf("trending:%d", limit)
	if quotes, ok := cache.GetJSON[[]marketdata.StockQuote](ctx, s.cache, key); ok {
		return quotes, nil
	}

	symbols := trendingCandidates
	if limit < len(symbols) {
		symbols = symbols[:limit]
	}

	quotes := fetchInBatches(ctx, symbols, s.batchSize, s.cooldown, s.fetchLiteQuote)

	if len(quotes) < len(symbols) {
		slog.WarnContext(ctx, "incomplete trending data from primary, trying fallback",
			"requested", len(symbols), "fetched", len(quotes))
		if fbQuotes, err := s.fallback.TrendingStocks(ctx, limit); err == nil {
			quotes = fbQuotes
		}
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("trending stocks: %w", domain.ErrProviderUnavailable)
	}

	cache.SetJSON(ctx, s.cache, key, quotes, cache.TTLTrending)
	return quotes, nil
}

// SearchSymbols searches for stocks by symbol or name. Results are
// enriched with live prices through the batch scheduler; an enrichment
// failure degrades the match to a zero-price stub instead of dropping it.
func (s *MarketDataService) SearchSymbols(ctx context.Context, query string, limit int) ([]marketdata.StockQuote, error) {
	query = strings.TrimSpace(querySanitizer.ReplaceAllString(query, ""))
	if query == "" || len(query) > maxQueryLength {
		return nil, fmt.Errorf("%w: query must be 1-%d characters after sanitization", domain.ErrInvalidArgument, maxQueryLength)
	}
	if limit < 1 || limit > maxSearchLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidArgument, maxSearchLimit)
	}

	upper := strings.ToUpper(query)
	key := fmt.Sprintf("search:%s:%d", upper, limit)
	if quotes, ok := cache.GetJSON[[]marketdata.StockQuote](ctx, s.cache, key); ok {
		return quotes, nil
	}

	// Fast path: short letters-only queries are usually a ticker, so try a
	// direct quote lookup before the fuzzy search.
	var direct []marketdata.StockQuote
	if directSymbolPattern.MatchString(query) {
		if quote, err := s.fetchLiteQuote(ctx, upper); err == nil {
			direct = append(direct, quote)
		}
	}

	quotes := s.searchPrimary(ctx, query, limit)
	if len(quotes) == 0 && len(direct) == 0 {
		slog.WarnContext(ctx, "empty primary search result, trying fallback", "query", query)
		fbQuotes, err := s.fallback.Search(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}
		quotes = rankByRelevance(fbQuotes, upper)
	}

	merged := direct
	for _, q := range quotes {
		if len(direct) > 0 && q.Symbol == direct[0].Symbol {
			continue
		}
		merged = append(merged, q)
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	cache.SetJSON(ctx, s.cache, key, merged, cache.TTLSearch)
	return merged, nil
}

// searchPrimary runs the primary symbol lookup, filters to plain
// common-stock tickers and enriches each with a live price.
func (s *MarketDataService) searchPrimary(ctx context.Context, query string, limit int) []marketdata.StockQuote {
	matches, err := s.primary.SearchSymbols(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "primary search failed", "query", query, "error", err)
		return nil
	}

	symbols := make([]string, 0, limit)
	names := make(map[string]string, limit)
	for _, m := range matches {
		// Suffixed tickers (BRK.A, RR.L) and non-equity types are noise for
		// this product's search box.
		if m.Type != "Common Stock" || strings.Contains(m.Symbol, ".") {
			continue
		}
		symbols = append(symbols, m.Symbol)
		names[m.Symbol] = m.Description
		if len(symbols) >= limit {
			break
		}
	}

	if len(symbols) == 0 {
		return nil
	}

	quotes := fetchInBatches(ctx, symbols, s.batchSize, s.cooldown, func(ctx context.Context, symbol string) (marketdata.StockQuote, error) {
		quote, err := s.fetchLiteQuote(ctx, symbol)
		if err != nil {
			// Degrade to a priceless stub; the match itself is still useful.
			return marketdata.StockQuote{Symbol: symbol, Name: names[symbol]}, nil
		}
		if quote.Name == quote.Symbol && names[symbol] != "" {
			quote.Name = names[symbol]
		}
		return quote, nil
	})

	return rankByRelevance(quotes, strings.ToUpper(query))
}

// fetchFullQuote gets quote and profile from the primary provider and
// enriches with a 1-year candle series for 52-week statistics and a
// 30-day sparkline. Candle enrichment is best effort.
func (s *MarketDataService) fetchFullQuote(ctx context.Context, symbol string) (marketdata.StockQuote, error) {
	quote, err := s.fetchLiteQuote(ctx, symbol)
	if err != nil {
		return marketdata.StockQuote{}, err
	}

	candles, err := s.primary.Candles(ctx, symbol, candleDays)
	if err != nil {
		slog.DebugContext(ctx, "candle enrichment skipped", "symbol", symbol, "error", err)
		return quote, nil
	}
	enrichFromCandles(&quote, candles)

	return quote, nil
}

// fetchLiteQuote gets quote and profile from the primary provider without
// candle enrichment, rejecting unusable (non-positive price) quotes.
func (s *MarketDataService) fetchLiteQuote(ctx context.Context, symbol string) (marketdata.StockQuote, error) {
	quote, err := s.primary.Quote(ctx, symbol)
	if err != nil {
		return marketdata.StockQuote{}, err
	}
	if !quote.IsUsable() {
		return marketdata.StockQuote{}, fmt.Errorf("%w: unusable quote for %s", domain.ErrProviderUnavailable, symbol)
	}

	if profile, err := s.primary.Profile(ctx, symbol); err == nil && profile.Name != "" {
		quote.Name = profile.Name
	}

	return quote, nil
}

// enrichFromCandles fills 52-week statistics, the 30-day average volume and
// the sparkline from a daily candle series.
func enrichFromCandles(quote *marketdata.StockQuote, candles marketdata.CandleSeries) {
	if len(candles.Close) == 0 {
		return
	}

	// Each array is guarded on its own; a series with missing high/low or
	// volume data still yields the statistics the remaining arrays support.
	if len(candles.High) > 0 {
		high := candles.High[0]
		for _, h := range candles.High {
			if h > high {
				high = h
			}
		}
		quote.WeekHigh52 = high
	}
	if len(candles.Low) > 0 {
		low := candles.Low[0]
		for _, l := range candles.Low {
			if l < low {
				low = l
			}
		}
		quote.WeekLow52 = low
	}

	if yearAgo := candles.Close[0]; yearAgo != 0 {
		quote.WeekChange52 = (quote.Price - yearAgo) / yearAgo * 100
	}

	volumes := candles.Volume
	if len(volumes) > chartDays {
		volumes = volumes[len(volumes)-chartDays:]
	}
	if len(volumes) > 0 {
		var total int64
		for _, v := range volumes {
			total += v
		}
		quote.AvgVolume = total / int64(len(volumes))
		quote.Volume = candles.Volume[len(candles.Volume)-1]
	}

	chart := candles.Close
	if len(chart) > chartDays {
		chart = chart[len(chart)-chartDays:]
	}
	quote.Chart = append([]float64(nil), chart...)
}

// rankByRelevance orders search results: exact symbol match first, then
// prefix matches, then everything else, preserving relative order within
// each bucket.
func rankByRelevance(quotes []marketdata.StockQuote, query string) []marketdata.StockQuote {
	ranked := make([]marketdata.StockQuote, 0, len(quotes))
	for rank := 0; rank <= 2; rank++ {
		for _, q := range quotes {
			r := 2
			switch {
			case q.Symbol == query:
				r = 0
			case strings.HasPrefix(q.Symbol, query):
				r = 1
			}
			if r == rank {
				ranked = append(ranked, q)
			}
		}
	}
	return ranked
}
