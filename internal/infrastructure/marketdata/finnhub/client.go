package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/fintrack/stocks-service/internal/domain"
	"github.com/fintrack/stocks-service/internal/infrastructure/marketdata"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"
	quotePath      = "/quote"
	profilePath    = "/stock/profile2"
	candlePath     = "/stock/candle"
	searchPath     = "/search"
)

// Client implements the PrimaryProvider interface using the Finnhub API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Finnhub API client.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithHTTPClient creates a new Finnhub client with a custom HTTP client (for testing).
func NewClientWithHTTPClient(apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// SetBaseURL sets the base URL for the API (useful for testing).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// quoteResponse represents the Finnhub quote response.
type quoteResponse struct {
	Current       float64 `json:"c"`  // Current price
	Change        float64 `json:"d"`  // Change
	PercentChange float64 `json:"dp"` // Percent change
	High          float64 `json:"h"`  // High price of the day
	Low           float64 `json:"l"`  // Low price of the day
	Open          float64 `json:"o"`  // Open price of the day
	PreviousClose float64 `json:"pc"` // Previous close price
	Timestamp     int64   `json:"t"`  // Timestamp
}

// profileResponse represents the Finnhub company profile response.
type profileResponse struct {
	Country              string  `json:"country"`
	Currency             string  `json:"currency"`
	Exchange             string  `json:"exchange"`
	IPO                  string  `json:"ipo"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	Name                 string  `json:"name"`
	ShareOutstanding     float64 `json:"shareOutstanding"`
	Ticker               string  `json:"ticker"`
	Weburl               string  `json:"weburl"`
}

// candleResponse represents the Finnhub OHLCV candle response.
// Status is "ok" when data is present and "no_data" otherwise.
type candleResponse struct {
	Close     []float64 `json:"c"`
	High      []float64 `json:"h"`
	Low       []float64 `json:"l"`
	Open      []float64 `json:"o"`
	Status    string    `json:"s"`
	Timestamp []int64   `json:"t"`
	Volume    []int64   `json:"v"`
}

// searchResponse represents the Finnhub symbol search response.
type searchResponse struct {
	Count  int            `json:"count"`
	Result []searchResult `json:"result"`
}

type searchResult struct {
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
}

// Quote retrieves the current quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (marketdata.StockQuote, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	var quoteResp quoteResponse
	if err := c.getJSON(ctx, quotePath, params, &quoteResp); err != nil {
		return marketdata.StockQuote{}, err
	}

	// Finnhub returns 200 with all-zero fields for unknown symbols.
	if quoteResp.Current == 0 && quoteResp.PreviousClose == 0 && quoteResp.Timestamp == 0 {
		return marketdata.StockQuote{}, fmt.Errorf("%w: no quote data for symbol %s", domain.ErrProviderUnavailable, symbol)
	}

	return marketdata.StockQuote{
		Symbol:        symbol,
		Name:          symbol,
		Price:         quoteResp.Current,
		Change:        quoteResp.Change,
		ChangePercent: quoteResp.PercentChange,
	}, nil
}

// Profile fetches the company profile for a symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (marketdata.CompanyProfile, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	var profileResp profileResponse
	if err := c.getJSON(ctx, profilePath, params, &profileResp); err != nil {
		return marketdata.CompanyProfile{}, err
	}

	// An empty body means the symbol was not found.
	if profileResp.Name == "" && profileResp.Ticker == "" {
		return marketdata.CompanyProfile{}, fmt.Errorf("%w: no profile data for symbol %s", domain.ErrProviderUnavailable, symbol)
	}

	return marketdata.CompanyProfile{
		Symbol: profileResp.Ticker,
		Name:   profileResp.Name,
	}, nil
}

// Candles retrieves a daily OHLCV series covering the last `days` days.
func (c *Client) Candles(ctx context.Context, symbol string, days int) (marketdata.CandleSeries, error) {
	now := time.Now()
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("resolution", "D")
	params.Add("from", fmt.Sprintf("%d", now.AddDate(0, 0, -days).Unix()))
	params.Add("to", fmt.Sprintf("%d", now.Unix()))

	var candleResp candleResponse
	if err := c.getJSON(ctx, candlePath, params, &candleResp); err != nil {
		return marketdata.CandleSeries{}, err
	}

	if candleResp.Status != "ok" || len(candleResp.Close) == 0 {
		return marketdata.CandleSeries{}, fmt.Errorf("%w: no candle data for symbol %s", domain.ErrProviderUnavailable, symbol)
	}
	// All four arrays describe the same trading days; a response where they
	// disagree in length is malformed.
	if len(candleResp.High) != len(candleResp.Close) ||
		len(candleResp.Low) != len(candleResp.Close) ||
		len(candleResp.Volume) != len(candleResp.Close) {
		return marketdata.CandleSeries{}, fmt.Errorf("%w: inconsistent candle data for symbol %s", domain.ErrProviderUnavailable, symbol)
	}

	return marketdata.CandleSeries{
		Close:  candleResp.Close,
		High:   candleResp.High,
		Low:    candleResp.Low,
		Volume: candleResp.Volume,
	}, nil
}

// SearchSymbols looks up symbols matching the query.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]marketdata.SymbolMatch, error) {
	params := url.Values{}
	params.Add("q", query)

	var searchResp searchResponse
	if err := c.getJSON(ctx, searchPath, params, &searchResp); err != nil {
		return nil, err
	}

	matches := make([]marketdata.SymbolMatch, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		matches = append(matches, marketdata.SymbolMatch{
			Symbol:      r.Symbol,
			Description: r.Description,
			Type:        r.Type,
		})
	}

	return matches, nil
}

// getJSON performs a GET request and decodes the JSON body into out.
// Network errors, non-200 statuses and malformed bodies are all normalized
// into a wrapped ErrProviderUnavailable so the service layer can trigger
// fallback with a single errors.Is check.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	params.Add("token", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr, "url", reqURL)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: API returned status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderUnavailable, err)
	}

	return nil
}

// Compile-time check that Client implements PrimaryProvider.
var _ marketdata.PrimaryProvider = (*Client)(nil)
