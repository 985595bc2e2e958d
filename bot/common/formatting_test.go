package common

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"zero", "0", "PTS", "0.00 PTS"},
		{"small", "7.5", "PTS", "7.50 PTS"},
		{"thousands", "1234.567", "PTS", "1,234.57 PTS"},
		{"millions", "1000000", "USDT", "1,000,000.00 USDT"},
		{"negative", "-2500", "PTS", "-2,500.00 PTS"},
		{"no currency", "999", "", "999.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "2.5%", FormatPercent(decimal.RequireFromString("2.50")))
	assert.Equal(t, "0%", FormatPercent(decimal.Zero))
}

func TestFormatDiscordTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "<t:1773511200:R>", FormatDiscordTimestamp(ts, "R"))
}
