package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restingOrder(id, clOrdID string, side Side, price string, qty int64) *Order {
	return &Order{
		OrderID:       id,
		ClientOrderID: clOrdID,
		Symbol:        "AAPL",
		Side:          side,
		Type:          TypeLimit,
		Price:         decimal.RequireFromString(price),
		Quantity:      qty,
		RemainingQty:  qty,
		Status:        StatusNew,
		CreatedAt:     time.Now(),
	}
}

func TestOrderBookAddAndBest(t *testing.T) {
	book := NewOrderBook("AAPL")

	book.Add(restingOrder("ORD1", "c1", SideBuy, "10.00", 100))
	book.Add(restingOrder("ORD2", "c2", SideBuy, "10.05", 50))
	book.Add(restingOrder("ORD3", "c3", SideSell, "10.10", 70))
	book.Add(restingOrder("ORD4", "c4", SideSell, "10.08", 30))

	require.NotNil(t, book.BestBid())
	require.NotNil(t, book.BestAsk())
	assert.Equal(t, "ORD2", book.BestBid().OrderID, "highest bid first")
	assert.Equal(t, "ORD4", book.BestAsk().OrderID, "lowest ask first")
	assert.Equal(t, 4, book.Len())
}

func TestOrderBookFIFOWithinLevel(t *testing.T) {
	book := NewOrderBook("AAPL")

	book.Add(restingOrder("ORD1", "c1", SideSell, "10.00", 30))
	book.Add(restingOrder("ORD2", "c2", SideSell, "10.00", 30))
	book.Add(restingOrder("ORD3", "c3", SideSell, "10.00", 30))

	assert.Equal(t, "ORD1", book.BestAsk().OrderID)

	top := book.TopN(SideSell, 10)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"ORD1", "ORD2", "ORD3"},
		[]string{top[0].OrderID, top[1].OrderID, top[2].OrderID})

	// Removing the head promotes the next arrival, not a later price.
	book.RemoveByOrderID("ORD1")
	assert.Equal(t, "ORD2", book.BestAsk().OrderID)
}

func TestOrderBookRemove(t *testing.T) {
	book := NewOrderBook("AAPL")
	book.Add(restingOrder("ORD1", "c1", SideBuy, "10.00", 100))

	t.Run("by client id", func(t *testing.T) {
		removed := book.RemoveByClientID("c1")
		require.NotNil(t, removed)
		assert.Equal(t, "ORD1", removed.OrderID)
		assert.Nil(t, book.BestBid(), "emptied level is dropped")
		assert.Nil(t, book.LookupByClientID("c1"))
		assert.Equal(t, 0, book.Len())
	})

	t.Run("missing returns nil", func(t *testing.T) {
		assert.Nil(t, book.RemoveByOrderID("ORD1"))
		assert.Nil(t, book.RemoveByClientID("nope"))
	})
}

func TestOrderBookTopNSpansLevels(t *testing.T) {
	book := NewOrderBook("AAPL")
	book.Add(restingOrder("ORD1", "c1", SideBuy, "10.00", 10))
	book.Add(restingOrder("ORD2", "c2", SideBuy, "10.02", 10))
	book.Add(restingOrder("ORD3", "c3", SideBuy, "10.02", 10))
	book.Add(restingOrder("ORD4", "c4", SideBuy, "9.99", 10))

	top := book.TopN(SideBuy, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "ORD2", top[0].OrderID)
	assert.Equal(t, "ORD3", top[1].OrderID)
	assert.Equal(t, "ORD1", top[2].OrderID)
}

func TestOrderBookIndexConsistency(t *testing.T) {
	book := NewOrderBook("AAPL")
	book.Add(restingOrder("ORD1", "c1", SideSell, "10.00", 10))
	book.Add(restingOrder("ORD2", "c2", SideSell, "10.01", 20))

	for _, o := range book.TopN(SideSell, 10) {
		assert.Same(t, o, book.LookupByClientID(o.ClientOrderID))
	}

	book.RemoveByOrderID("ORD2")
	assert.Nil(t, book.LookupByClientID("c2"))
	assert.Len(t, book.TopN(SideSell, 10), 1)
}

func TestOrderBookExactDecimalLevels(t *testing.T) {
	book := NewOrderBook("AAPL")
	// 10.10 and 10.1 are the same price level under exact comparison.
	book.Add(restingOrder("ORD1", "c1", SideSell, "10.10", 10))
	book.Add(restingOrder("ORD2", "c2", SideSell, "10.1", 10))

	top := book.TopN(SideSell, 10)
	require.Len(t, top, 2)
	assert.Equal(t, "ORD1", top[0].OrderID, "same level keeps arrival order")
}
