package application

import (
	"context"
	"log/slog"
	"time"
)

// CacheWarmer periodically re-fetches the index and trending quotes so the
// most-hit cache entries rarely expire under live traffic.
type CacheWarmer struct {
	market   *MarketDataService
	interval time.Duration
	stopChan chan struct{}
}

func NewCacheWarmer(market *MarketDataService, interval time.Duration) *CacheWarmer {
	return &CacheWarmer{
		market:   market,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (w *CacheWarmer) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Cache warmer started", "interval", w.interval)

	for {
		select {
		case <-ticker.C:
			w.warm(ctx)
		case <-w.stopChan:
			slog.Info("Cache warmer stopped")
			return
		case <-ctx.Done():
			slog.Info("Cache warmer stopped due to context cancellation")
			return
		}
	}
}

func (w *CacheWarmer) Stop() {
	close(w.stopChan)
}

func (w *CacheWarmer) warm(ctx context.Context) {
	if _, err := w.market.GetMarketIndices(ctx); err != nil {
		slog.Error("Error warming index cache", "error", err)
	}
	if _, err := w.market.GetTrendingStocks(ctx, 10); err != nil {
		slog.Error("Error warming trending cache", "error", err)
	}
}
