package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFetchInBatches_AllSucceed(t *testing.T) {
	symbols := []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META"}

	results := fetchInBatches(context.Background(), symbols, 5, 0, func(_ context.Context, symbol string) (string, error) {
		return strings.ToLower(symbol), nil
	})

	assert.Len(t, results, len(symbols))
	assert.ElementsMatch(t, []string{"aapl", "msft", "googl", "amzn", "tsla", "nvda", "meta"}, results)
}

func TestFetchInBatches_FailuresAreDropped(t *testing.T) {
	symbols := []string{"AAPL", "BAD", "MSFT"}

	results := fetchInBatches(context.Background(), symbols, 5, 0, func(_ context.Context, symbol string) (string, error) {
		if symbol == "BAD" {
			return "", errors.New("provider exploded")
		}
		return symbol, nil
	})

	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, results)
}

func TestFetchInBatches_GroupConcurrencyIsBounded(t *testing.T) {
	symbols := []string{"A", "B", "C", "D", "E", "F", "G", "H"}

	var mu sync.Mutex
	inFlight, peak := 0, 0

	fetchInBatches(context.Background(), symbols, 3, 0, func(_ context.Context, symbol string) (string, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return symbol, nil
	})

	assert.LessOrEqual(t, peak, 3, "never more than one group in flight")
}

func TestFetchInBatches_CooldownSeparatesGroups(t *testing.T) {
	symbols := []string{"A", "B", "C", "D"}
	cooldown := 30 * time.Millisecond

	start := time.Now()
	fetchInBatches(context.Background(), symbols, 2, cooldown, func(_ context.Context, symbol string) (string, error) {
		return symbol, nil
	})
	elapsed := time.Since(start)

	// Two groups, one cooldown between them, none after the last.
	assert.GreaterOrEqual(t, elapsed, cooldown)
	assert.Less(t, elapsed, 2*cooldown)
}

func TestFetchInBatches_ContextCancelStopsBetweenGroups(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	symbols := []string{"A", "B", "C", "D"}

	results := fetchInBatches(ctx, symbols, 2, time.Minute, func(_ context.Context, symbol string) (string, error) {
		if symbol == "B" {
			cancel()
		}
		return symbol, nil
	})

	// First group completes, the minute-long cooldown is skipped and the
	// second group never runs.
	assert.ElementsMatch(t, []string{"A", "B"}, results)
}

func TestFetchInBatches_Empty(t *testing.T) {
	results := fetchInBatches(context.Background(), nil, 5, 0, func(_ context.Context, symbol string) (string, error) {
		t.Fatal("fetch should not be called")
		return "", nil
	})
	assert.Empty(t, results)
}
