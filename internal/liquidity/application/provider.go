package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	exdomain "github.com/wyfcoding/exchangesim/internal/exchange/domain"
	"github.com/wyfcoding/exchangesim/internal/liquidity/domain"
)

// Maker orders carry a distinguished sender id so downstream observers can
// recognise them.
const (
	MakerSenderID = "MARKET_MAKER"
	makerTargetID = "EXCHANGE"
)

// ReferencePriceSource is the slice of the price cache the provider needs.
type ReferencePriceSource interface {
	Get(ctx context.Context, symbol string) (decimal.Decimal, bool)
}

// Config carries the provider's runtime options.
type Config struct {
	Enabled         bool
	FallbackPrice   decimal.Decimal
	RefreshInterval time.Duration
}

// Provider seeds a symbol's book with a fan of maker quotes on first touch
// and re-posts quotes when the reference price moves. Seeding is idempotent
// per symbol; the active-set guard also stops the recursion through the
// engine's pre-match hook when the maker orders themselves are submitted.
type Provider struct {
	cfg      Config
	engine   *exdomain.MatchingEngine
	prices   ReferencePriceSource
	profiles *ProfileService
	logger   *slog.Logger

	active     sync.Map // symbol -> struct{}
	lastPrices sync.Map // symbol -> decimal.Decimal
	makerSeq   atomic.Int64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewProvider(
	cfg Config,
	engine *exdomain.MatchingEngine,
	prices ReferencePriceSource,
	profiles *ProfileService,
	logger *slog.Logger,
) *Provider {
	return &Provider{
		cfg:      cfg,
		engine:   engine,
		prices:   prices,
		profiles: profiles,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// EnsureLiquidity implements the engine's pre-match seeding hook. The first
// call for a symbol fetches its profile and a reference price and posts the
// quote fan; every later call returns immediately.
func (p *Provider) EnsureLiquidity(ctx context.Context, symbol string, incoming *exdomain.Order) {
	if !p.cfg.Enabled {
		return
	}
	symbol = strings.ToUpper(symbol)

	// Marking active before posting makes repeated and recursive submits
	// no-ops while the first caller is still seeding.
	if _, loaded := p.active.LoadOrStore(symbol, struct{}{}); loaded {
		return
	}

	p.logger.Info("first order for symbol, seeding liquidity", "symbol", symbol)
	start := time.Now()

	profile := p.profiles.Get(ctx, symbol)
	ref := p.referencePrice(ctx, symbol, incoming)
	p.postQuotes(ctx, symbol, ref, profile)

	p.logger.Info("liquidity seeded",
		"symbol", symbol,
		"tier", profile.Tier,
		"market_cap", profile.FormattedMarketCap(),
		"reference_price", ref,
		"elapsed", time.Since(start))
}

// Setup manually seeds a symbol, equivalent to a first touch with no
// incoming order.
func (p *Provider) Setup(ctx context.Context, symbol string) {
	if !p.cfg.Enabled {
		p.logger.Warn("cannot setup liquidity, provider disabled", "symbol", symbol)
		return
	}
	p.EnsureLiquidity(ctx, strings.ToUpper(symbol), nil)
}

// referencePrice resolves the seed price: cached/fetched reference price,
// then the incoming limit price, then the configured fallback.
func (p *Provider) referencePrice(ctx context.Context, symbol string, incoming *exdomain.Order) decimal.Decimal {
	if price, ok := p.prices.Get(ctx, symbol); ok {
		return price
	}

	if incoming != nil && incoming.Type == exdomain.TypeLimit && incoming.Price.IsPositive() {
		p.logger.Warn("using order limit price as reference", "symbol", symbol, "price", incoming.Price)
		return incoming.Price
	}

	p.logger.Warn("using fallback reference price", "symbol", symbol, "price", p.cfg.FallbackPrice)
	return p.cfg.FallbackPrice
}

// postQuotes posts the bid/ask ladder for one reference price: level offsets
// widen by the profile's increment, bids round down, asks round up, sizes
// grow by the quantity multiplier.
func (p *Provider) postQuotes(ctx context.Context, symbol string, ref decimal.Decimal, profile *domain.LiquidityProfile) {
	p.lastPrices.Store(symbol, ref)

	one := decimal.NewFromInt(1)
	qty := profile.BaseQuantity
	for level := 0; level < profile.Levels; level++ {
		offsetBps := profile.BaseSpreadBps + int64(level)*profile.LevelIncrementBps
		offset := decimal.NewFromInt(offsetBps).Div(decimal.NewFromInt(10000))

		bidPrice := ref.Mul(one.Sub(offset)).RoundDown(2)
		askPrice := ref.Mul(one.Add(offset)).RoundUp(2)

		p.postMakerOrder(ctx, symbol, exdomain.SideBuy, bidPrice, qty, level)
		p.postMakerOrder(ctx, symbol, exdomain.SideSell, askPrice, qty, level)

		qty *= profile.QuantityMultiplier
	}

	p.logger.Info("posted maker quotes",
		"symbol", symbol,
		"levels", profile.Levels,
		"tier", profile.Tier,
		"spread_bps", profile.BaseSpreadBps,
		"base_qty", profile.BaseQuantity)
}

func (p *Provider) postMakerOrder(ctx context.Context, symbol string, side exdomain.Side, price decimal.Decimal, qty int64, level int) {
	order := &exdomain.Order{
		ClientOrderID: fmt.Sprintf("MM-%s-%s-%d-%d", symbol, side, level, p.makerSeq.Add(1)),
		Symbol:        symbol,
		Side:          side,
		Type:          exdomain.TypeLimit,
		Price:         price,
		Quantity:      qty,
		SenderID:      MakerSenderID,
		TargetID:      makerTargetID,
	}

	if _, err := p.engine.Submit(ctx, order); err != nil {
		p.logger.Error("failed to post maker order",
			"symbol", symbol, "side", side, "price", price, "qty", qty, "error", err)
		return
	}

	p.logger.Debug("posted maker order",
		"symbol", symbol, "side", side, "price", price, "qty", qty, "level", level)
}

// Start launches the periodic refresh loop.
func (p *Provider) Start() {
	if !p.cfg.Enabled || p.cfg.RefreshInterval <= 0 {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.refreshAll(context.Background())
			}
		}
	}()
}

// Stop terminates the refresh loop.
func (p *Provider) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

// refreshAll re-quotes every active symbol whose reference price moved.
// Re-quoting is additive: previous maker orders stay in the book.
func (p *Provider) refreshAll(ctx context.Context) {
	p.active.Range(func(key, _ any) bool {
		p.refreshSymbol(ctx, key.(string))
		return true
	})
}

func (p *Provider) refreshSymbol(ctx context.Context, symbol string) {
	newPrice, ok := p.prices.Get(ctx, symbol)
	if !ok {
		return
	}

	if last, ok := p.lastPrices.Load(symbol); ok && newPrice.Equal(last.(decimal.Decimal)) {
		return
	}

	p.logger.Info("reference price moved, refreshing quotes", "symbol", symbol, "price", newPrice)
	p.postQuotes(ctx, symbol, newPrice, p.profiles.Get(ctx, symbol))
}

// HasLiquidity reports whether the symbol has been seeded.
func (p *Provider) HasLiquidity(symbol string) bool {
	_, ok := p.active.Load(strings.ToUpper(symbol))
	return ok
}

// Status describes the provider for the inspection API.
type Status struct {
	Enabled       bool                       `json:"enabled"`
	ActiveSymbols []string                   `json:"active_symbols"`
	SymbolPrices  map[string]decimal.Decimal `json:"symbol_prices"`
	Profiles      map[string]any             `json:"profiles"`
}

// GetStatus returns the provider's active symbols, last used reference
// prices and cached profiles.
func (p *Provider) GetStatus() *Status {
	status := &Status{
		Enabled:       p.cfg.Enabled,
		ActiveSymbols: []string{},
		SymbolPrices:  make(map[string]decimal.Decimal),
		Profiles:      make(map[string]any),
	}

	p.active.Range(func(key, _ any) bool {
		symbol := key.(string)
		status.ActiveSymbols = append(status.ActiveSymbols, symbol)
		if price, ok := p.lastPrices.Load(symbol); ok {
			status.SymbolPrices[symbol] = price.(decimal.Decimal)
		}
		if profile := p.profiles.Cached(symbol); profile != nil {
			status.Profiles[symbol] = map[string]any{
				"tier":       profile.Tier,
				"market_cap": profile.FormattedMarketCap(),
				"spread_bps": profile.BaseSpreadBps,
				"base_qty":   profile.BaseQuantity,
			}
		}
		return true
	})

	return status
}
