package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Decimal wraps apd.Decimal to provide database serialization and clean
// arithmetic for ledger money and share quantities. Quotes coming off the
// wire stay float64; only values that enter the ledger go through Decimal.
type Decimal struct {
	apd.Decimal
}

// DefaultContext is used for arithmetic operations.
var DefaultContext = apd.BaseContext.WithPrecision(20)

// Zero constant for convenience
var Zero = NewDecimalFromInt(0)

// NewDecimalFromInt creates a Decimal from an int64
func NewDecimalFromInt(v int64) Decimal {
	d := Decimal{}
	d.SetInt64(v)
	return d
}

// NewDecimalFromString creates a Decimal from a string
func NewDecimalFromString(v string) (Decimal, error) {
	d := Decimal{}
	_, _, err := d.SetString(v)
	if err != nil {
		return d, fmt.Errorf("invalid decimal string %s: %w", v, err)
	}
	return d, nil
}

// NewDecimalFromFloat creates a Decimal from a float64. Used at the HTTP
// boundary where amounts and prices arrive as JSON numbers.
func NewDecimalFromFloat(v float64) (Decimal, error) {
	d := Decimal{}
	if _, err := d.SetFloat64(v); err != nil {
		return d, fmt.Errorf("invalid decimal float %v: %w", v, err)
	}
	return d, nil
}

// String implements the fmt.Stringer interface.
func (d Decimal) String() string {
	return d.Decimal.String()
}

// Float64 returns the nearest float64 representation, for display fields.
func (d Decimal) Float64() float64 {
	f, _ := d.Decimal.Float64()
	return f
}

// Value implements the driver.Valuer interface for database serialization.
func (d Decimal) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (d *Decimal) Scan(value interface{}) error {
	if value == nil {
		d.SetInt64(0)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		_, _, err := d.SetString(string(v))
		return err
	case string:
		_, _, err := d.SetString(v)
		return err
	case int64:
		d.SetInt64(v)
		return nil
	case float64:
		_, err := d.SetFloat64(v)
		if err != nil {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported type for Decimal scan: %T", value)
	}
}

// Arithmetic Helpers

func (d Decimal) Add(other Decimal) (Decimal, error) {
	res := Decimal{}
	if _, err := DefaultContext.Add(&res.Decimal, &d.Decimal, &other.Decimal); err != nil {
		return res, fmt.Errorf("add operation failed: %w", err)
	}
	return res, nil
}

func (d Decimal) Sub(other Decimal) (Decimal, error) {
	res := Decimal{}
	if _, err := DefaultContext.Sub(&res.Decimal, &d.Decimal, &other.Decimal); err != nil {
		return res, fmt.Errorf("sub operation failed: %w", err)
	}
	return res, nil
}

func (d Decimal) Mul(other Decimal) (Decimal, error) {
	res := Decimal{}
	if _, err := DefaultContext.Mul(&res.Decimal, &d.Decimal, &other.Decimal); err != nil {
		return res, fmt.Errorf("mul operation failed: %w", err)
	}
	return res, nil
}

func (d Decimal) Div(other Decimal) (Decimal, error) {
	if other.IsZero() {
		return Zero, fmt.Errorf("division by zero")
	}
	res := Decimal{}
	if _, err := DefaultContext.Quo(&res.Decimal, &d.Decimal, &other.Decimal); err != nil {
		return res, fmt.Errorf("div operation failed: %w", err)
	}
	return res, nil
}

func (d Decimal) IsZero() bool {
	return d.Decimal.IsZero()
}

// IsPositive reports whether d > 0.
func (d Decimal) IsPositive() bool {
	return !d.Decimal.Negative && !d.IsZero()
}

func (d Decimal) Equal(other Decimal) bool {
	return d.Decimal.Cmp(&other.Decimal) == 0
}

func (d Decimal) Cmp(other Decimal) int {
	return d.Decimal.Cmp(&other.Decimal)
}

// MarshalJSON implements the json.Marshaler interface.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	// Remove quotes if present
	s := string(data)
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	_, _, err := d.SetString(s)
	return err
}

// Round rounds the decimal half-up to the specified number of places.
func (d Decimal) Round(places int32) (Decimal, error) {
	return d.quantize(places, apd.RoundHalfUp)
}

// RoundDown truncates the decimal to the specified number of places.
// Share quantities are computed with this so a buyer is never credited
// more shares than the amount pays for.
func (d Decimal) RoundDown(places int32) (Decimal, error) {
	return d.quantize(places, apd.RoundDown)
}

func (d Decimal) quantize(places int32, rounding apd.Rounder) (Decimal, error) {
	res := Decimal{}
	ctx := apd.BaseContext.WithPrecision(20)
	ctx.Rounding = rounding

	if _, err := ctx.Quantize(&res.Decimal, &d.Decimal, -places); err != nil {
		return res, fmt.Errorf("quantize operation failed: %w", err)
	}
	return res, nil
}
