// Package application implements the liquidity subsystem: the per-symbol
// profile cache and the market-maker quote provider.
package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exchangesim/internal/liquidity/domain"
	mddomain "github.com/wyfcoding/exchangesim/internal/marketdata/domain"
)

// ProfileService classifies symbols by market cap and caches the resulting
// profile indefinitely; symbol fundamentals are assumed stable for a
// trading session.
type ProfileService struct {
	companies mddomain.CompanySource
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*domain.LiquidityProfile
}

func NewProfileService(companies mddomain.CompanySource, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		companies: companies,
		logger:    logger,
		cache:     make(map[string]*domain.LiquidityProfile),
	}
}

// Get returns the symbol's profile, fetching and classifying on first use.
// Fetch failures yield the UNKNOWN tier.
func (s *ProfileService) Get(ctx context.Context, symbol string) *domain.LiquidityProfile {
	symbol = strings.ToUpper(symbol)

	s.mu.RLock()
	cached, ok := s.cache[symbol]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	profile := s.fetchAndClassify(ctx, symbol)

	s.mu.Lock()
	s.cache[symbol] = profile
	s.mu.Unlock()

	s.logger.Info("classified symbol",
		"symbol", symbol,
		"tier", profile.Tier,
		"market_cap", profile.FormattedMarketCap(),
		"spread_bps", profile.BaseSpreadBps,
		"base_qty", profile.BaseQuantity)

	return profile
}

func (s *ProfileService) fetchAndClassify(ctx context.Context, symbol string) *domain.LiquidityProfile {
	marketCap, err := s.companies.MarketCap(ctx, symbol)
	if err != nil {
		s.logger.Warn("profile fetch failed, using UNKNOWN tier", "symbol", symbol, "error", err)
		return domain.ForTier(symbol, domain.TierUnknown, decimal.Zero)
	}
	return domain.ForTier(symbol, domain.ClassifyMarketCap(marketCap), marketCap)
}

// Cached returns the profile without fetching, or nil.
func (s *ProfileService) Cached(symbol string) *domain.LiquidityProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[strings.ToUpper(symbol)]
}

// All returns every cached profile keyed by symbol.
func (s *ProfileService) All() map[string]*domain.LiquidityProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.LiquidityProfile, len(s.cache))
	for symbol, profile := range s.cache {
		out[symbol] = profile
	}
	return out
}
