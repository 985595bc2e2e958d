package service

import "github.com/shopspring/decimal"

// CurrencyScale is the number of decimal places of the smallest currency unit
const CurrencyScale = 2

// validateMoney rejects non-positive amounts and amounts finer than the currency unit
func validateMoney(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount.WithDetail("amount", amount.String())
	}
	if !amount.Equal(amount.Truncate(CurrencyScale)) {
		return ErrInvalidAmount.
			WithMessagef("amount must have at most %d decimal places", CurrencyScale).
			WithDetail("amount", amount.String())
	}
	return nil
}
