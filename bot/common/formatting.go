package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount formats a monetary amount with thousand separators and two decimals
func FormatAmount(amount decimal.Decimal, currency string) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	n := len(whole)
	var result strings.Builder
	if amount.IsNegative() {
		result.WriteRune('-')
	}
	for i, digit := range whole {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	result.WriteRune('.')
	result.WriteString(frac)

	if currency != "" {
		result.WriteRune(' ')
		result.WriteString(currency)
	}
	return result.String()
}

// FormatPercent formats a percentage without trailing zeros
func FormatPercent(pct decimal.Decimal) string {
	return pct.String() + "%"
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}
