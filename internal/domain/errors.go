package domain

import "errors"

// Error taxonomy for the stocks core. The HTTP layer maps these with
// errors.Is; everything else wraps them with fmt.Errorf("...: %w", ...).
var (
	// ErrInvalidArgument covers bad symbols, out-of-range limits and
	// non-positive amounts or prices. Maps to 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientHoldings is returned when a sell exceeds the shares
	// currently held. Maps to 400 with the shortfall in the message.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrProviderUnavailable means every market-data provider in the chain
	// failed. Maps to 500 with a generic message; detail is only logged.
	ErrProviderUnavailable = errors.New("market data provider unavailable")

	// ErrUnauthorized and ErrForbidden map to 401 and 403.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
