package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fintrack/stocks-service/internal/application"
	"github.com/fintrack/stocks-service/internal/domain"
	"github.com/fintrack/stocks-service/internal/infrastructure/marketdata"
)

var symbolPattern = regexp.MustCompile(`^[A-Z^]{1,10}$`)

// MarketDataService defines the market data operations the handler needs.
type MarketDataService interface {
	GetQuote(ctx context.Context, symbol string) (marketdata.StockQuote, error)
	GetMarketIndices(ctx context.Context) ([]marketdata.StockQuote, error)
	GetTrendingStocks(ctx context.Context, limit int) ([]marketdata.StockQuote, error)
	SearchSymbols(ctx context.Context, query string, limit int) ([]marketdata.StockQuote, error)
}

// PortfolioService defines the portfolio operations the handler needs.
type PortfolioService interface {
	GetHoldings(ctx context.Context, userID string) ([]domain.Holding, error)
	GetPortfolio(ctx context.Context, userID string) ([]application.PortfolioLine, error)
}

// TransactionService defines the trading operations the handler needs.
type TransactionService interface {
	Execute(ctx context.Context, userID, symbol string, txType domain.TransactionType, amount, price domain.Decimal) (domain.Transaction, error)
	MaxSellAmount(ctx context.Context, userID, symbol string) (application.MaxSellResult, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
}

type Handler struct {
	market    MarketDataService
	portfolio PortfolioService
	trades    TransactionService
}

func NewHandler(market MarketDataService, portfolio PortfolioService, trades TransactionService) *Handler {
	return &Handler{
		market:    market,
		portfolio: portfolio,
		trades:    trades,
	}
}

// Every response carries a success boolean; failures get a short
// human-readable message, never a raw provider error.
func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses.
// Provider details stay in the server log.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInsufficientHoldings):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		respondError(c, http.StatusForbidden, "access denied")
	case errors.Is(err, domain.ErrProviderUnavailable):
		slog.ErrorContext(c.Request.Context(), "market data unavailable", "error", err)
		respondError(c, http.StatusInternalServerError, "market data is temporarily unavailable")
	default:
		slog.ErrorContext(c.Request.Context(), "internal error", "error", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) GetMarketIndices(c *gin.Context) {
	indices, err := h.market.GetMarketIndices(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, indices)
}

func (h *Handler) GetTrendingStocks(c *gin.Context) {
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		respondError(c, http.StatusBadRequest, "limit must be an integer")
		return
	}

	stocks, err := h.market.GetTrendingStocks(c.Request.Context(), limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, stocks)
}

func (h *Handler) GetStock(c *gin.Context) {
	symbol := c.Param("symbol")
	if !symbolPattern.MatchString(symbol) {
		respondError(c, http.StatusBadRequest, "invalid symbol format")
		return
	}

	quote, err := h.market.GetQuote(c.Request.Context(), symbol)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, quote)
}

func (h *Handler) SearchStocks(c *gin.Context) {
	query := c.Query("q")
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		respondError(c, http.StatusBadRequest, "limit must be an integer")
		return
	}

	results, err := h.market.SearchSymbols(c.Request.Context(), query, limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, results)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	userID := c.GetString(ContextUserIDKey)
	requested := c.Param("userId")

	if requested != userID {
		// Security audit trail: cross-user portfolio access attempt.
		slog.WarnContext(c.Request.Context(), "forbidden portfolio access attempt",
			"authenticated_user", userID, "requested_user", requested)
		respondError(c, http.StatusForbidden, "access denied")
		return
	}

	lines, err := h.portfolio.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, lines)
}

func (h *Handler) GetHoldings(c *gin.Context) {
	userID := c.GetString(ContextUserIDKey)

	holdings, err := h.portfolio.GetHoldings(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, holdings)
}

type executeTransactionRequest struct {
	Symbol string  `json:"symbol" binding:"required"`
	Type   string  `json:"type" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
	Price  float64 `json:"price" binding:"required"`
}

func (h *Handler) ExecuteTransaction(c *gin.Context) {
	userID := c.GetString(ContextUserIDKey)

	var req executeTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !symbolPattern.MatchString(req.Symbol) {
		respondError(c, http.StatusBadRequest, "invalid symbol format")
		return
	}

	amount, err := domain.NewDecimalFromFloat(req.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid amount")
		return
	}
	price, err := domain.NewDecimalFromFloat(req.Price)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid price")
		return
	}

	transaction, err := h.trades.Execute(c.Request.Context(), userID, req.Symbol, domain.TransactionType(req.Type), amount, price)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, transaction)
}

func (h *Handler) GetMaxSell(c *gin.Context) {
	userID := c.GetString(ContextUserIDKey)
	symbol := c.Param("symbol")
	if !symbolPattern.MatchString(symbol) {
		respondError(c, http.StatusBadRequest, "invalid symbol format")
		return
	}

	result, err := h.trades.MaxSellAmount(c.Request.Context(), userID, symbol)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	userID := c.GetString(ContextUserIDKey)
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		respondError(c, http.StatusBadRequest, "limit must be an integer")
		return
	}

	transactions, err := h.trades.ListTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	respondOK(c, transactions)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func queryInt(c *gin.Context, name string, defaultValue int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}
