// Package money models monetary amounts as integer minor currency units
// (cents) paired with an ISO-style currency code. Floating point never enters
// the picture.
package money

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNegativeAmount rejects negative magnitudes; operation names carry
	// direction, signs never do.
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrNoCurrency rejects amounts without a currency code.
	ErrNoCurrency = errors.New("currency code is required")
)

// Amount is a non-negative magnitude in minor units plus a currency code.
type Amount struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
}

// New validates and builds an Amount, normalizing the currency to upper case.
func New(value int64, currency string) (Amount, error) {
	a := Amount{Value: value, Currency: strings.ToUpper(strings.TrimSpace(currency))}
	if err := a.Validate(); err != nil {
		return Amount{}, err
	}
	return a, nil
}

// Validate checks the amount invariants.
func (a Amount) Validate() error {
	if a.Value < 0 {
		return ErrNegativeAmount
	}
	if a.Currency == "" {
		return ErrNoCurrency
	}
	return nil
}

// String renders the amount for logs and error messages.
func (a Amount) String() string {
	return fmt.Sprintf("%d %s", a.Value, a.Currency)
}
