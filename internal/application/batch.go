package application

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultBatchSize = 5
	defaultCooldown  = 100 * time.Millisecond
)

// fetchInBatches runs one lookup per symbol against the primary provider
// without blowing its per-minute call budget: symbols are partitioned into
// fixed-size groups preserving input order, each group runs concurrently
// (goroutines + WaitGroup + result channel), and a cooldown separates
// groups. Failures are logged and dropped; one failing lookup must not
// cancel its siblings. The returned slice holds successful results only,
// in completion order.
func fetchInBatches[T any](ctx context.Context, symbols []string, batchSize int, cooldown time.Duration, fetch func(ctx context.Context, symbol string) (T, error)) []T {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	results := make([]T, 0, len(symbols))

	for start := 0; start < len(symbols); start += batchSize {
		end := min(start+batchSize, len(symbols))
		group := symbols[start:end]

		type fetchResult struct {
			symbol string
			value  T
			err    error
		}

		resultChan := make(chan fetchResult, len(group))
		var wg sync.WaitGroup

		for _, symbol := range group {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()

				value, err := fetch(ctx, symbol)
				resultChan <- fetchResult{symbol: symbol, value: value, err: err}
			}(symbol)
		}

		go func() {
			wg.Wait()
			close(resultChan)
		}()

		for r := range resultChan {
			if r.err != nil {
				slog.DebugContext(ctx, "batched lookup failed", "symbol", r.symbol, "error", r.err)
				continue
			}
			results = append(results, r.value)
		}

		// Cooldown between groups, not after the last one.
		if end < len(symbols) {
			select {
			case <-time.After(cooldown):
			case <-ctx.Done():
				return results
			}
		}
	}

	return results
}
