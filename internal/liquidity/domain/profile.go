// Package domain classifies symbols into market-cap tiers and carries the
// maker-quote parameters for each tier.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierMegaCap  Tier = "MEGA_CAP"
	TierLargeCap Tier = "LARGE_CAP"
	TierMidCap   Tier = "MID_CAP"
	TierSmallCap Tier = "SMALL_CAP"
	TierUnknown  Tier = "UNKNOWN"
)

// Market-cap thresholds in dollars.
var (
	megaCapThreshold  = decimal.New(500, 9)
	largeCapThreshold = decimal.New(50, 9)
	midCapThreshold   = decimal.New(10, 9)
)

// LiquidityProfile carries a symbol's maker-quote parameters, derived once
// from its market-cap tier and cached for the session.
type LiquidityProfile struct {
	Symbol             string          `json:"symbol"`
	Tier               Tier            `json:"tier"`
	MarketCap          decimal.Decimal `json:"market_cap"`
	BaseSpreadBps      int64           `json:"base_spread_bps"`
	LevelIncrementBps  int64           `json:"level_increment_bps"`
	BaseQuantity       int64           `json:"base_quantity"`
	QuantityMultiplier int64           `json:"quantity_multiplier"`
	Levels             int             `json:"levels"`
}

// ClassifyMarketCap maps a market cap in dollars to its tier.
func ClassifyMarketCap(marketCap decimal.Decimal) Tier {
	switch {
	case marketCap.GreaterThanOrEqual(megaCapThreshold):
		return TierMegaCap
	case marketCap.GreaterThanOrEqual(largeCapThreshold):
		return TierLargeCap
	case marketCap.GreaterThanOrEqual(midCapThreshold):
		return TierMidCap
	default:
		return TierSmallCap
	}
}

// ForTier builds the profile for a symbol in the given tier. Small-cap and
// unknown symbols quote the widest, smallest ladder.
func ForTier(symbol string, tier Tier, marketCap decimal.Decimal) *LiquidityProfile {
	p := &LiquidityProfile{
		Symbol:             symbol,
		Tier:               tier,
		MarketCap:          marketCap,
		QuantityMultiplier: 2,
		Levels:             5,
	}
	switch tier {
	case TierMegaCap:
		p.BaseSpreadBps, p.LevelIncrementBps, p.BaseQuantity = 1, 1, 1000
	case TierLargeCap:
		p.BaseSpreadBps, p.LevelIncrementBps, p.BaseQuantity = 2, 2, 500
	case TierMidCap:
		p.BaseSpreadBps, p.LevelIncrementBps, p.BaseQuantity = 5, 3, 200
	default:
		p.BaseSpreadBps, p.LevelIncrementBps, p.BaseQuantity = 10, 5, 100
	}
	return p
}

// FormattedMarketCap renders the market cap as $N.NT/B/M for logs and the
// status endpoint, or "n/a" when unknown.
func (p *LiquidityProfile) FormattedMarketCap() string {
	if p.MarketCap.IsZero() {
		return "n/a"
	}
	trillion := decimal.New(1, 12)
	billion := decimal.New(1, 9)
	million := decimal.New(1, 6)
	switch {
	case p.MarketCap.GreaterThanOrEqual(trillion):
		return fmt.Sprintf("$%sT", p.MarketCap.Div(trillion).StringFixed(1))
	case p.MarketCap.GreaterThanOrEqual(billion):
		return fmt.Sprintf("$%sB", p.MarketCap.Div(billion).StringFixed(1))
	default:
		return fmt.Sprintf("$%sM", p.MarketCap.Div(million).StringFixed(1))
	}
}
