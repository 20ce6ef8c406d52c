package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyMarketCap(t *testing.T) {
	tests := []struct {
		name      string
		marketCap string
		want      Tier
	}{
		{"mega cap", "3400000000000", TierMegaCap},
		{"mega cap boundary", "500000000000", TierMegaCap},
		{"large cap", "120000000000", TierLargeCap},
		{"large cap boundary", "50000000000", TierLargeCap},
		{"mid cap", "25000000000", TierMidCap},
		{"mid cap boundary", "10000000000", TierMidCap},
		{"small cap", "9999999999", TierSmallCap},
		{"tiny", "1", TierSmallCap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyMarketCap(decimal.RequireFromString(tt.marketCap)))
		})
	}
}

func TestForTierParameters(t *testing.T) {
	tests := []struct {
		tier      Tier
		spreadBps int64
		incBps    int64
		baseQty   int64
	}{
		{TierMegaCap, 1, 1, 1000},
		{TierLargeCap, 2, 2, 500},
		{TierMidCap, 5, 3, 200},
		{TierSmallCap, 10, 5, 100},
		{TierUnknown, 10, 5, 100},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			p := ForTier("AAPL", tt.tier, decimal.Zero)
			assert.Equal(t, tt.spreadBps, p.BaseSpreadBps)
			assert.Equal(t, tt.incBps, p.LevelIncrementBps)
			assert.Equal(t, tt.baseQty, p.BaseQuantity)
			assert.Equal(t, int64(2), p.QuantityMultiplier)
			assert.Equal(t, 5, p.Levels)
		})
	}
}

func TestFormattedMarketCap(t *testing.T) {
	assert.Equal(t, "n/a", ForTier("X", TierUnknown, decimal.Zero).FormattedMarketCap())
	assert.Equal(t, "$3.4T", ForTier("X", TierMegaCap, decimal.RequireFromString("3400000000000")).FormattedMarketCap())
	assert.Equal(t, "$120.0B", ForTier("X", TierLargeCap, decimal.RequireFromString("120000000000")).FormattedMarketCap())
	assert.Equal(t, "$900.0M", ForTier("X", TierSmallCap, decimal.RequireFromString("900000000")).FormattedMarketCap())
}
