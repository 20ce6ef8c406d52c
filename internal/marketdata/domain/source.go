// Package domain declares the fetch contracts of the external reference
// data service.
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoAPIKey means external fetches are disabled by configuration.
	ErrNoAPIKey = errors.New("marketdata: no api key configured")
	// ErrRateLimited maps the service's HTTP 429 indicator.
	ErrRateLimited = errors.New("marketdata: rate limit reached")
	// ErrNoData means the service answered without a usable value.
	ErrNoData = errors.New("marketdata: no data for symbol")
)

// QuoteSource fetches the last traded price for a symbol.
type QuoteSource interface {
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// CompanySource fetches the market capitalisation for a symbol, in dollars.
type CompanySource interface {
	MarketCap(ctx context.Context, symbol string) (decimal.Decimal, error)
}
