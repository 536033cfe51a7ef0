package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// Transaction is one immutable buy/sell event in the ledger. The ledger is
// append-only: there is no update or delete anywhere in the codebase, and
// holdings are always recomputed from the full event stream.
type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Symbol          string          `json:"symbol"`
	Type            TransactionType `json:"transactionType"`
	Shares          Decimal         `json:"shares"`
	PricePerShare   Decimal         `json:"pricePerShare"`
	TotalAmount     Decimal         `json:"totalAmount"`
	TransactionDate time.Time       `json:"transactionDate"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// NewTransaction builds a ledger entry with a server-assigned id and
// timestamps. TotalAmount is stored redundantly (shares * price) for audit.
func NewTransaction(userID, symbol string, txType TransactionType, shares, pricePerShare Decimal) (Transaction, error) {
	if txType != TransactionTypeBuy && txType != TransactionTypeSell {
		return Transaction{}, fmt.Errorf("%w: transaction type must be buy or sell", ErrInvalidArgument)
	}
	if userID == "" || symbol == "" {
		return Transaction{}, fmt.Errorf("%w: user id and symbol are required", ErrInvalidArgument)
	}
	if !shares.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: shares must be positive", ErrInvalidArgument)
	}
	if !pricePerShare.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: price per share must be positive", ErrInvalidArgument)
	}

	total, err := shares.Mul(pricePerShare)
	if err != nil {
		return Transaction{}, fmt.Errorf("computing total amount: %w", err)
	}

	now := time.Now().UTC()
	return Transaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		Symbol:          symbol,
		Type:            txType,
		Shares:          shares,
		PricePerShare:   pricePerShare,
		TotalAmount:     total,
		TransactionDate: now,
		CreatedAt:       now,
	}, nil
}
