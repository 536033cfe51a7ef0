package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fintrack/stocks-service/internal/domain"
	"github.com/fintrack/stocks-service/internal/infrastructure/marketdata"
	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "http://localhost:8000"
	quotePath      = "/api/v1/quote/{symbol}"
	indicesPath    = "/api/v1/indices"
	trendingPath   = "/api/v1/trending"
	searchPath     = "/api/v1/search"
)

// Client implements the FallbackProvider interface against the yfinance
// market-data microservice. The service is slower than the primary API but
// serves pre-aggregated quotes, so calls carry a longer timeout.
type Client struct {
	client *resty.Client
}

// NewClient creates a fallback client for the given base URL.
func NewClient(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{client: client}
}

// NewClientWithRestyClient creates a client with a preconfigured resty
// client (for testing).
func NewClientWithRestyClient(rc *resty.Client) *Client {
	return &Client{client: rc}
}

// quoteResponse is the microservice's quote shape. Field names differ from
// the primary provider's; normalization happens here and nowhere else.
type quoteResponse struct {
	Symbol           string    `json:"symbol"`
	LongName         string    `json:"longName"`
	CurrentPrice     float64   `json:"currentPrice"`
	PreviousClose    float64   `json:"previousClose"`
	RegularVolume    int64     `json:"regularMarketVolume"`
	AverageVolume    int64     `json:"averageVolume"`
	FiftyTwoWeekHigh float64   `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  float64   `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekChg  float64   `json:"fiftyTwoWeekChangePercent"`
	CloseHistory     []float64 `json:"closeHistory"`
}

// quoteListResponse wraps list-shaped endpoints (indices, trending, search).
type quoteListResponse struct {
	Quotes []quoteResponse `json:"quotes"`
}

// errorResponse represents an error payload from the microservice.
type errorResponse struct {
	Detail string `json:"detail"`
}

// QuoteBySymbol retrieves a single pre-aggregated quote.
func (c *Client) QuoteBySymbol(ctx context.Context, symbol string) (marketdata.StockQuote, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		Get(quotePath)
	if err != nil {
		return marketdata.StockQuote{}, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	if err := checkStatus(resp); err != nil {
		return marketdata.StockQuote{}, err
	}

	var quoteResp quoteResponse
	if err := json.Unmarshal(resp.Body(), &quoteResp); err != nil {
		return marketdata.StockQuote{}, fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderUnavailable, err)
	}

	quote := normalize(quoteResp)
	if !quote.IsUsable() {
		return marketdata.StockQuote{}, fmt.Errorf("%w: no price data for symbol %s", domain.ErrProviderUnavailable, symbol)
	}

	return quote, nil
}

// MarketIndices retrieves all major index quotes in one call.
func (c *Client) MarketIndices(ctx context.Context) ([]marketdata.StockQuote, error) {
	return c.quoteList(ctx, indicesPath, nil)
}

// TrendingStocks retrieves the service's own trending list.
func (c *Client) TrendingStocks(ctx context.Context, limit int) ([]marketdata.StockQuote, error) {
	return c.quoteList(ctx, trendingPath, map[string]string{"limit": fmt.Sprintf("%d", limit)})
}

// Search performs a symbol/name search with prices included.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]marketdata.StockQuote, error) {
	return c.quoteList(ctx, searchPath, map[string]string{
		"q":     query,
		"limit": fmt.Sprintf("%d", limit),
	})
}

func (c *Client) quoteList(ctx context.Context, path string, params map[string]string) ([]marketdata.StockQuote, error) {
	req := c.client.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var listResp quoteListResponse
	if err := json.Unmarshal(resp.Body(), &listResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderUnavailable, err)
	}

	quotes := make([]marketdata.StockQuote, 0, len(listResp.Quotes))
	for _, qr := range listResp.Quotes {
		quote := normalize(qr)
		if !quote.IsUsable() {
			slog.Debug("dropping unusable fallback quote", "symbol", qr.Symbol)
			continue
		}
		quotes = append(quotes, quote)
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: empty result from %s", domain.ErrProviderUnavailable, path)
	}

	return quotes, nil
}

func checkStatus(resp *resty.Response) error {
	if resp.StatusCode() == http.StatusOK {
		return nil
	}

	var errResp errorResponse
	if json.Unmarshal(resp.Body(), &errResp) == nil && errResp.Detail != "" {
		return fmt.Errorf("%w: API error: %s", domain.ErrProviderUnavailable, errResp.Detail)
	}
	return fmt.Errorf("%w: API returned status %d", domain.ErrProviderUnavailable, resp.StatusCode())
}

// normalize converts the microservice shape into the canonical StockQuote.
func normalize(qr quoteResponse) marketdata.StockQuote {
	change := qr.CurrentPrice - qr.PreviousClose
	changePercent := 0.0
	if qr.PreviousClose != 0 {
		changePercent = change / qr.PreviousClose * 100
	}

	name := qr.LongName
	if name == "" {
		name = qr.Symbol
	}

	return marketdata.StockQuote{
		Symbol:        qr.Symbol,
		Name:          name,
		Price:         qr.CurrentPrice,
		Change:        change,
		ChangePercent: changePercent,
		Volume:        qr.RegularVolume,
		AvgVolume:     qr.AverageVolume,
		WeekHigh52:    qr.FiftyTwoWeekHigh,
		WeekLow52:     qr.FiftyTwoWeekLow,
		WeekChange52:  qr.FiftyTwoWeekChg,
		Chart:         qr.CloseHistory,
	}
}

// Compile-time check that Client implements FallbackProvider.
var _ marketdata.FallbackProvider = (*Client)(nil)
