// Package application holds the TTL-bounded reference-price cache.
package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exchangesim/internal/marketdata/domain"
)

type cachedPrice struct {
	price     decimal.Decimal
	fetchedAt time.Time
}

// PriceService maps symbol to last fetched price. A cached entry is served
// while its age is within the TTL; otherwise the remote source is hit and
// only positive prices are stored.
type PriceService struct {
	source domain.QuoteSource
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]cachedPrice
}

func NewPriceService(source domain.QuoteSource, ttl time.Duration, logger *slog.Logger) *PriceService {
	return &PriceService{
		source: source,
		ttl:    ttl,
		logger: logger,
		cache:  make(map[string]cachedPrice),
	}
}

// Get returns the reference price for a symbol, filling the cache on miss
// with a blocking remote fetch. Returns false when no price is available.
func (s *PriceService) Get(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	symbol = strings.ToUpper(symbol)

	if price, ok := s.Cached(symbol); ok {
		return price, true
	}

	price, err := s.source.LastPrice(ctx, symbol)
	if err != nil {
		s.logger.Warn("reference price fetch failed", "symbol", symbol, "error", err)
		return decimal.Zero, false
	}
	if !price.IsPositive() {
		s.logger.Warn("reference price not positive, not cached", "symbol", symbol, "price", price)
		return decimal.Zero, false
	}

	s.mu.Lock()
	s.cache[symbol] = cachedPrice{price: price, fetchedAt: time.Now()}
	s.mu.Unlock()

	s.logger.Info("fetched reference price", "symbol", symbol, "price", price)
	return price, true
}

// Cached returns the non-expired cached price without external I/O.
func (s *PriceService) Cached(symbol string) (decimal.Decimal, bool) {
	symbol = strings.ToUpper(symbol)
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[symbol]
	if !ok || time.Since(entry.fetchedAt) > s.ttl {
		return decimal.Zero, false
	}
	return entry.price, true
}

// Refresh evicts the symbol's entry and fetches anew.
func (s *PriceService) Refresh(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	symbol = strings.ToUpper(symbol)
	s.mu.Lock()
	delete(s.cache, symbol)
	s.mu.Unlock()
	return s.Get(ctx, symbol)
}

// Snapshot returns every non-expired cached price.
func (s *PriceService) Snapshot() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(s.cache))
	for symbol, entry := range s.cache {
		if time.Since(entry.fetchedAt) <= s.ttl {
			out[symbol] = entry.price
		}
	}
	return out
}
