package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NUMERIC columns are selected as ::text and parsed here so rounding never
// goes through float64.

func Decimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

func NullDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := Decimal(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
