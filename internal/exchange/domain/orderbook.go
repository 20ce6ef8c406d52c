package domain

import (
	"container/list"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/shopspring/decimal"
)

// priceLevel is the set of orders resting at one price, time priority FIFO.
type priceLevel struct {
	price  decimal.Decimal
	orders *list.List // of *Order
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

func (l *priceLevel) front() *Order {
	el := l.orders.Front()
	if el == nil {
		return nil
	}
	return el.Value.(*Order)
}

func decimalAscending(a, b interface{}) int {
	return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
}

func decimalDescending(a, b interface{}) int {
	return b.(decimal.Decimal).Cmp(a.(decimal.Decimal))
}

// OrderBook holds all resting orders for one symbol: price levels ordered
// best-first per side, FIFO queues within a level, and two indices keyed by
// exchange order id and client order id. Comparisons are exact decimal.
//
// The book's methods take no lock; the owning MatchingEngine holds mu
// around every call on a single book instance.
type OrderBook struct {
	symbol string
	mu     sync.Mutex

	bids *treemap.Map // decimal.Decimal -> *priceLevel, highest first
	asks *treemap.Map // decimal.Decimal -> *priceLevel, lowest first

	byOrderID  map[string]*list.Element
	byClientID map[string]*list.Element
}

func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol:     symbol,
		bids:       treemap.NewWith(decimalDescending),
		asks:       treemap.NewWith(decimalAscending),
		byOrderID:  make(map[string]*list.Element),
		byClientID: make(map[string]*list.Element),
	}
}

func (b *OrderBook) Symbol() string { return b.symbol }

func (b *OrderBook) side(s Side) *treemap.Map {
	if s == SideBuy {
		return b.bids
	}
	return b.asks
}

// Add inserts the order at the tail of its price level. The order must be
// non-terminal with remaining quantity.
func (b *OrderBook) Add(order *Order) {
	tree := b.side(order.Side)

	var level *priceLevel
	if v, found := tree.Get(order.Price); found {
		level = v.(*priceLevel)
	} else {
		level = newPriceLevel(order.Price)
		tree.Put(order.Price, level)
	}

	el := level.orders.PushBack(order)
	b.byOrderID[order.OrderID] = el
	b.byClientID[order.ClientOrderID] = el
}

// RemoveByOrderID removes the order by exchange order id, dropping the price
// level if it empties. Returns nil if the order is not resting.
func (b *OrderBook) RemoveByOrderID(orderID string) *Order {
	el, ok := b.byOrderID[orderID]
	if !ok {
		return nil
	}
	return b.remove(el)
}

// RemoveByClientID removes the order by client order id.
func (b *OrderBook) RemoveByClientID(clientOrderID string) *Order {
	el, ok := b.byClientID[clientOrderID]
	if !ok {
		return nil
	}
	return b.remove(el)
}

func (b *OrderBook) remove(el *list.Element) *Order {
	order := el.Value.(*Order)
	tree := b.side(order.Side)

	if v, found := tree.Get(order.Price); found {
		level := v.(*priceLevel)
		level.orders.Remove(el)
		if level.orders.Len() == 0 {
			tree.Remove(order.Price)
		}
	}

	delete(b.byOrderID, order.OrderID)
	delete(b.byClientID, order.ClientOrderID)
	return order
}

// BestBid returns the first order at the highest bid price, or nil.
func (b *OrderBook) BestBid() *Order { return b.best(b.bids) }

// BestAsk returns the first order at the lowest ask price, or nil.
func (b *OrderBook) BestAsk() *Order { return b.best(b.asks) }

func (b *OrderBook) best(tree *treemap.Map) *Order {
	_, v := tree.Min()
	if v == nil {
		return nil
	}
	return v.(*priceLevel).front()
}

// LookupByClientID returns the resting order for the client order id, or nil.
func (b *OrderBook) LookupByClientID(clientOrderID string) *Order {
	el, ok := b.byClientID[clientOrderID]
	if !ok {
		return nil
	}
	return el.Value.(*Order)
}

// TopN returns up to depth orders from one side in priority order.
func (b *OrderBook) TopN(side Side, depth int) []*Order {
	orders := make([]*Order, 0, depth)
	it := b.side(side).Iterator()
	for it.Next() {
		level := it.Value().(*priceLevel)
		for el := level.orders.Front(); el != nil; el = el.Next() {
			orders = append(orders, el.Value.(*Order))
			if len(orders) >= depth {
				return orders
			}
		}
	}
	return orders
}

// Len returns the number of resting orders.
func (b *OrderBook) Len() int { return len(b.byOrderID) }

// BookLevel is one aggregated price level of a snapshot.
type BookLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Orders   int             `json:"orders"`
}

// BookSnapshot is a point-in-time aggregated view of a book.
type BookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []*BookLevel `json:"bids"`
	Asks      []*BookLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

func (b *OrderBook) collectLevels(tree *treemap.Map, depth int) []*BookLevel {
	levels := make([]*BookLevel, 0, depth)
	it := tree.Iterator()
	for it.Next() {
		if len(levels) >= depth {
			break
		}
		level := it.Value().(*priceLevel)
		var totalQty int64
		for el := level.orders.Front(); el != nil; el = el.Next() {
			totalQty += el.Value.(*Order).RemainingQty
		}
		levels = append(levels, &BookLevel{
			Price:    level.price,
			Quantity: totalQty,
			Orders:   level.orders.Len(),
		})
	}
	return levels
}
