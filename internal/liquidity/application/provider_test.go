package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exdomain "github.com/wyfcoding/exchangesim/internal/exchange/domain"
	"github.com/wyfcoding/exchangesim/internal/liquidity/domain"
)

type stubPrices struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
}

func (s *stubPrices) Get(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.prices[symbol]
	return price, ok
}

func (s *stubPrices) set(symbol, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = decimal.RequireFromString(price)
}

type stubCompanies struct {
	caps map[string]decimal.Decimal
}

func (s *stubCompanies) MarketCap(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if c, ok := s.caps[symbol]; ok {
		return c, nil
	}
	return decimal.Zero, errors.New("profile unavailable")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProvider(enabled bool, prices *stubPrices, companies *stubCompanies) (*Provider, *exdomain.MatchingEngine) {
	logger := discardLogger()
	engine := exdomain.NewMatchingEngine(logger)
	profiles := NewProfileService(companies, logger)
	provider := NewProvider(
		Config{Enabled: enabled, FallbackPrice: decimal.RequireFromString("100.00")},
		engine,
		prices,
		profiles,
		logger,
	)
	engine.SetLiquiditySeeder(provider)
	return provider, engine
}

func levelQuantities(levels []*exdomain.BookLevel) []int64 {
	out := make([]int64, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.Quantity)
	}
	return out
}

func levelPrices(levels []*exdomain.BookLevel) []string {
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.Price.StringFixed(2))
	}
	return out
}

// S6: first touch of a mega-cap symbol seeds five levels each side and the
// incoming order crosses the tightest ask.
func TestFirstTouchSeedsQuotes(t *testing.T) {
	prices := &stubPrices{prices: map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("150.00")}}
	companies := &stubCompanies{caps: map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("3400000000000")}}
	_, engine := newTestProvider(true, prices, companies)

	execs, err := engine.Submit(context.Background(), &exdomain.Order{
		ClientOrderID: "b1",
		Symbol:        "AAPL",
		Side:          exdomain.SideBuy,
		Type:          exdomain.TypeLimit,
		Price:         decimal.RequireFromString("150.02"),
		Quantity:      100,
	})
	require.NoError(t, err)

	// The client order crossed the best ask and filled completely.
	last := execs[len(execs)-1]
	assert.Equal(t, exdomain.ExecFill, execs[1].Type)
	assert.Equal(t, "b1", execs[1].ClientOrderID)
	assert.True(t, execs[1].Price.Equal(decimal.RequireFromString("150.02")))
	assert.Equal(t, exdomain.StatusPartiallyFilled, last.OrderStatus, "maker at the touch keeps the rest")

	snap := engine.Snapshot("AAPL", 10)
	require.NotNil(t, snap)
	require.Len(t, snap.Bids, 5)
	require.Len(t, snap.Asks, 5)

	assert.Equal(t, []string{"149.98", "149.97", "149.95", "149.94", "149.92"}, levelPrices(snap.Bids))
	assert.Equal(t, []string{"150.02", "150.03", "150.05", "150.06", "150.08"}, levelPrices(snap.Asks))
	assert.Equal(t, []int64{1000, 2000, 4000, 8000, 16000}, levelQuantities(snap.Bids))
	assert.Equal(t, []int64{900, 2000, 4000, 8000, 16000}, levelQuantities(snap.Asks), "incoming buy consumed 100 at the touch")
}

func TestSeedingIsIdempotent(t *testing.T) {
	prices := &stubPrices{prices: map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("150.00")}}
	companies := &stubCompanies{caps: map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("3400000000000")}}
	provider, engine := newTestProvider(true, prices, companies)

	submit := func(clOrdID string) {
		_, err := engine.Submit(context.Background(), &exdomain.Order{
			ClientOrderID: clOrdID,
			Symbol:        "AAPL",
			Side:          exdomain.SideBuy,
			Type:          exdomain.TypeLimit,
			Price:         decimal.RequireFromString("150.02"),
			Quantity:      100,
		})
		require.NoError(t, err)
	}

	submit("b1")
	require.True(t, provider.HasLiquidity("AAPL"))

	submit("b2")
	snap := engine.Snapshot("AAPL", 10)
	require.Len(t, snap.Asks, 5, "no additional seed quotes on repeat submit")
	assert.Equal(t, int64(800), snap.Asks[0].Quantity, "both buys consumed the same seeded ask")
	assert.Equal(t, []int64{1000, 2000, 4000, 8000, 16000}, levelQuantities(snap.Bids))
}

func TestReferencePricePriority(t *testing.T) {
	t.Run("limit price when no reference price", func(t *testing.T) {
		prices := &stubPrices{prices: map[string]decimal.Decimal{}}
		provider, engine := newTestProvider(true, prices, &stubCompanies{})

		_, err := engine.Submit(context.Background(), &exdomain.Order{
			ClientOrderID: "b1",
			Symbol:        "SNAP",
			Side:          exdomain.SideBuy,
			Type:          exdomain.TypeLimit,
			Price:         decimal.RequireFromString("42.50"),
			Quantity:      10,
		})
		require.NoError(t, err)

		status := provider.GetStatus()
		require.Contains(t, status.ActiveSymbols, "SNAP")
		assert.True(t, status.SymbolPrices["SNAP"].Equal(decimal.RequireFromString("42.50")))
	})

	t.Run("fallback for market order", func(t *testing.T) {
		prices := &stubPrices{prices: map[string]decimal.Decimal{}}
		provider, engine := newTestProvider(true, prices, &stubCompanies{})

		_, err := engine.Submit(context.Background(), &exdomain.Order{
			ClientOrderID: "m1",
			Symbol:        "SNAP",
			Side:          exdomain.SideBuy,
			Type:          exdomain.TypeMarket,
			Quantity:      10,
		})
		require.NoError(t, err)

		status := provider.GetStatus()
		assert.True(t, status.SymbolPrices["SNAP"].Equal(decimal.RequireFromString("100.00")))
	})

	t.Run("fallback for manual setup", func(t *testing.T) {
		prices := &stubPrices{prices: map[string]decimal.Decimal{}}
		provider, _ := newTestProvider(true, prices, &stubCompanies{})

		provider.Setup(context.Background(), "ROKU")
		status := provider.GetStatus()
		require.Contains(t, status.ActiveSymbols, "ROKU")
		assert.True(t, status.SymbolPrices["ROKU"].Equal(decimal.RequireFromString("100.00")))
	})
}

func TestUnknownTierQuotesWide(t *testing.T) {
	prices := &stubPrices{prices: map[string]decimal.Decimal{"XYZ": decimal.RequireFromString("100.00")}}
	provider, engine := newTestProvider(true, prices, &stubCompanies{})

	provider.Setup(context.Background(), "XYZ")

	snap := engine.Snapshot("XYZ", 10)
	require.Len(t, snap.Asks, 5)
	// Unknown tier quotes the small-cap ladder: 10 bps base, 5 bps steps.
	assert.Equal(t, "100.10", snap.Asks[0].Price.StringFixed(2))
	assert.Equal(t, "99.90", snap.Bids[0].Price.StringFixed(2))
	assert.Equal(t, []int64{100, 200, 400, 800, 1600}, levelQuantities(snap.Asks))
}

func TestDisabledProviderDoesNothing(t *testing.T) {
	prices := &stubPrices{prices: map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("150.00")}}
	provider, engine := newTestProvider(false, prices, &stubCompanies{})

	_, err := engine.Submit(context.Background(), &exdomain.Order{
		ClientOrderID: "b1",
		Symbol:        "AAPL",
		Side:          exdomain.SideBuy,
		Type:          exdomain.TypeLimit,
		Price:         decimal.RequireFromString("150.00"),
		Quantity:      100,
	})
	require.NoError(t, err)

	assert.False(t, provider.HasLiquidity("AAPL"))
	snap := engine.Snapshot("AAPL", 10)
	assert.Empty(t, snap.Asks)
	require.Len(t, snap.Bids, 1, "only the client order rests")
}

func TestRefreshOnlyOnPriceMove(t *testing.T) {
	prices := &stubPrices{prices: map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("150.00")}}
	companies := &stubCompanies{caps: map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("3400000000000")}}
	provider, engine := newTestProvider(true, prices, companies)
	ctx := context.Background()

	provider.Setup(ctx, "AAPL")
	before := engine.Snapshot("AAPL", 10)

	t.Run("unchanged price is a no-op", func(t *testing.T) {
		provider.refreshAll(ctx)
		after := engine.Snapshot("AAPL", 10)
		assert.Equal(t, levelQuantities(before.Asks), levelQuantities(after.Asks))
		assert.Equal(t, levelQuantities(before.Bids), levelQuantities(after.Bids))
	})

	t.Run("moved price re-posts additively", func(t *testing.T) {
		prices.set("AAPL", "151.00")
		provider.refreshAll(ctx)

		status := provider.GetStatus()
		assert.True(t, status.SymbolPrices["AAPL"].Equal(decimal.RequireFromString("151.00")))

		// Old quotes are not cancelled; the new fan is layered on top. The
		// new bids cross the stale asks and trade them out, so the book ends
		// with the fresh asks above and the original bids still resting.
		after := engine.Snapshot("AAPL", 20)
		require.NotEmpty(t, after.Asks)
		require.NotEmpty(t, after.Bids)
		assert.Equal(t, "151.02", after.Asks[0].Price.StringFixed(2))
		assert.Equal(t, "149.98", after.Bids[0].Price.StringFixed(2))
	})
}

func TestProfileServiceCachesIndefinitely(t *testing.T) {
	companies := &countingCompanies{caps: map[string]decimal.Decimal{"AAPL": decimal.RequireFromString("3400000000000")}}
	svc := NewProfileService(companies, discardLogger())
	ctx := context.Background()

	first := svc.Get(ctx, "AAPL")
	assert.Equal(t, domain.TierMegaCap, first.Tier)
	assert.Same(t, first, svc.Get(ctx, "aapl"), "case-insensitive cache hit")
	assert.Equal(t, 1, companies.calls)
}

func TestProfileServiceUnknownOnFailure(t *testing.T) {
	svc := NewProfileService(&stubCompanies{}, discardLogger())

	profile := svc.Get(context.Background(), "GHOST")
	assert.Equal(t, domain.TierUnknown, profile.Tier)
	assert.True(t, profile.MarketCap.IsZero())

	// Failures are cached too; fundamentals are not re-fetched mid-session.
	assert.Same(t, profile, svc.Get(context.Background(), "GHOST"))
}

type countingCompanies struct {
	caps  map[string]decimal.Decimal
	calls int
}

func (s *countingCompanies) MarketCap(ctx context.Context, symbol string) (decimal.Decimal, error) {
	s.calls++
	if c, ok := s.caps[symbol]; ok {
		return c, nil
	}
	return decimal.Zero, errors.New("profile unavailable")
}
