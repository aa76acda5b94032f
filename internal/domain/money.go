package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest money value the store's NUMERIC(12,2) columns hold.
var MaxAmount = decimal.RequireFromString("9999999999.99")

// checkAmount rejects money values the store would round or refuse: anything
// finer than a cent or larger than MaxAmount.
func checkAmount(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(2)) {
		return fmt.Errorf("%w: %s must have at most 2 decimal places", ErrValidation, field)
	}
	if d.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: %s must not exceed %s", ErrValidation, field, MaxAmount.StringFixed(2))
	}
	return nil
}
