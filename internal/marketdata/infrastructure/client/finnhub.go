// Package client implements the Finnhub reference-data endpoints.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exchangesim/internal/marketdata/domain"
)

const DefaultBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient talks HTTP+JSON to Finnhub's quote and company-profile
// endpoints. An empty API key disables all fetches.
type FinnhubClient struct {
	http   *resty.Client
	apiKey string
	logger *slog.Logger
}

func NewFinnhubClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *FinnhubClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &FinnhubClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		apiKey: apiKey,
		logger: logger,
	}
}

// quoteResponse: c = current price, pc = previous close.
type quoteResponse struct {
	Current       float64 `json:"c"`
	PreviousClose float64 `json:"pc"`
}

// LastPrice fetches the current price, rounded to 2dp.
func (c *FinnhubClient) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if c.apiKey == "" {
		return decimal.Zero, domain.ErrNoAPIKey
	}

	var quote quoteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": symbol, "token": c.apiKey}).
		SetResult(&quote).
		Get("/quote")
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote fetch for %s: %w", symbol, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		c.logger.Warn("finnhub rate limit reached", "symbol", symbol)
		return decimal.Zero, domain.ErrRateLimited
	}
	if !resp.IsSuccess() {
		return decimal.Zero, fmt.Errorf("quote fetch for %s: status %d", symbol, resp.StatusCode())
	}
	if quote.Current <= 0 {
		return decimal.Zero, domain.ErrNoData
	}

	return decimal.NewFromFloat(quote.Current).Round(2), nil
}

// profileResponse: marketCapitalization is reported in millions of dollars.
type profileResponse struct {
	Name                 string  `json:"name"`
	MarketCapitalization float64 `json:"marketCapitalization"`
}

// MarketCap fetches the company's market capitalisation in dollars.
func (c *FinnhubClient) MarketCap(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if c.apiKey == "" {
		return decimal.Zero, domain.ErrNoAPIKey
	}

	var profile profileResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"symbol": symbol, "token": c.apiKey}).
		SetResult(&profile).
		Get("/stock/profile2")
	if err != nil {
		return decimal.Zero, fmt.Errorf("profile fetch for %s: %w", symbol, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		c.logger.Warn("finnhub rate limit reached", "symbol", symbol)
		return decimal.Zero, domain.ErrRateLimited
	}
	if !resp.IsSuccess() {
		return decimal.Zero, fmt.Errorf("profile fetch for %s: status %d", symbol, resp.StatusCode())
	}
	if profile.MarketCapitalization <= 0 {
		return decimal.Zero, domain.ErrNoData
	}

	marketCap := decimal.NewFromFloat(profile.MarketCapitalization).Mul(decimal.NewFromInt(1_000_000))
	c.logger.Debug("fetched company profile", "symbol", symbol, "name", profile.Name, "market_cap", marketCap)
	return marketCap, nil
}
