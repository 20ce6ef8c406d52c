package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// LiquiditySeeder is invoked synchronously before an incoming order is
// matched. It may submit further (maker) orders into the same engine; such
// recursive submissions must not re-trigger seeding for the symbol.
type LiquiditySeeder interface {
	EnsureLiquidity(ctx context.Context, symbol string, incoming *Order)
}

// ExecutionSink receives every execution batch emitted by one engine call.
type ExecutionSink func(execs []*Execution)

// Validation errors returned by Submit for malformed input. Failures of
// well-formed operations (unknown symbol, order not found, amend below
// filled) never surface as errors; they become REJECTED executions.
var (
	ErrEmptyClientOrderID = fmt.Errorf("client order id must not be empty")
	ErrEmptySymbol        = fmt.Errorf("symbol must not be empty")
	ErrInvalidSide        = fmt.Errorf("side must be BUY or SELL")
	ErrInvalidType        = fmt.Errorf("order type must be LIMIT or MARKET")
	ErrInvalidQuantity    = fmt.Errorf("quantity must be positive")
	ErrInvalidPrice       = fmt.Errorf("limit price must be positive")
)

// MatchingEngine owns the per-symbol order books and produces the execution
// stream. Matching, residual placement, cancellation and replacement on one
// book run under the book's lock, so the execution batch of a call is
// contiguous and the book is never observed crossed. Submit calls the
// liquidity seeder before it takes the lock.
type MatchingEngine struct {
	mu    sync.RWMutex
	books map[string]*OrderBook

	orderSeq atomic.Int64
	execSeq  atomic.Int64

	seeder LiquiditySeeder
	sink   ExecutionSink

	logger *slog.Logger
}

func NewMatchingEngine(logger *slog.Logger) *MatchingEngine {
	return &MatchingEngine{
		books:  make(map[string]*OrderBook),
		logger: logger,
	}
}

// SetLiquiditySeeder installs the pre-match seeding hook.
func (e *MatchingEngine) SetLiquiditySeeder(s LiquiditySeeder) { e.seeder = s }

// SetExecutionSink installs the sink receiving every emitted batch.
func (e *MatchingEngine) SetExecutionSink(sink ExecutionSink) { e.sink = sink }

func (e *MatchingEngine) nextOrderID() string {
	return fmt.Sprintf("ORD%d", e.orderSeq.Add(1))
}

func (e *MatchingEngine) nextExecID() string {
	return fmt.Sprintf("EXEC%d", e.execSeq.Add(1))
}

func (e *MatchingEngine) book(symbol string) (*OrderBook, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.books[symbol]
	return b, ok
}

func (e *MatchingEngine) getOrCreateBook(symbol string) *OrderBook {
	e.mu.RLock()
	b, ok := e.books[symbol]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok = e.books[symbol]; ok {
		return b
	}
	b = NewOrderBook(symbol)
	e.books[symbol] = b
	return b
}

func (e *MatchingEngine) validate(order *Order) error {
	switch {
	case order.ClientOrderID == "":
		return ErrEmptyClientOrderID
	case order.Symbol == "":
		return ErrEmptySymbol
	case order.Side != SideBuy && order.Side != SideSell:
		return ErrInvalidSide
	case order.Type != TypeLimit && order.Type != TypeMarket:
		return ErrInvalidType
	case order.Quantity <= 0:
		return ErrInvalidQuantity
	case order.Type == TypeLimit && !order.Price.IsPositive():
		return ErrInvalidPrice
	}
	return nil
}

// Submit runs an incoming order through seeding, matching and residual
// placement, returning the ordered execution sequence it produced.
func (e *MatchingEngine) Submit(ctx context.Context, order *Order) ([]*Execution, error) {
	if err := e.validate(order); err != nil {
		return nil, err
	}

	order.OrderID = e.nextOrderID()
	order.CreatedAt = time.Now()
	order.RemainingQty = order.Quantity
	order.FilledQty = 0
	order.Status = StatusNew

	book := e.getOrCreateBook(order.Symbol)

	// Seed maker quotes before matching so they are visible to the loop.
	// The seeder re-enters Submit for its own orders; its idempotence guard
	// stops the recursion.
	if e.seeder != nil {
		e.seeder.EnsureLiquidity(ctx, order.Symbol, order)
	}

	book.mu.Lock()
	execs := []*Execution{e.newExecution(order, ExecNew, decimal.Zero, 0)}
	execs = append(execs, e.match(order, book)...)

	if order.RemainingQty > 0 {
		if order.Type == TypeLimit {
			book.Add(order)
		} else {
			// Market order ran out of counter-liquidity.
			order.Status = StatusRejected
			execs = append(execs, e.newExecution(order, ExecRejected, decimal.Zero, 0))
		}
	}
	book.mu.Unlock()

	e.logger.Info("order submitted",
		"order_id", order.OrderID,
		"client_order_id", order.ClientOrderID,
		"symbol", order.Symbol,
		"side", order.Side,
		"status", order.Status,
		"executions", len(execs))

	e.emit(execs)
	return execs, nil
}

// Cancel removes the resting order identified by origClientOrderID, emitting
// a CANCELLED execution, or a single REJECTED execution when the symbol or
// order is unknown.
func (e *MatchingEngine) Cancel(ctx context.Context, symbol, origClientOrderID, clientOrderID string) []*Execution {
	book, ok := e.book(symbol)
	if !ok {
		e.logger.Warn("cancel rejected, unknown symbol", "symbol", symbol, "orig_client_order_id", origClientOrderID)
		execs := []*Execution{e.rejectedResponse(symbol, origClientOrderID, clientOrderID)}
		e.emit(execs)
		return execs
	}

	book.mu.Lock()
	order := book.RemoveByClientID(origClientOrderID)
	var exec *Execution
	if order == nil {
		e.logger.Warn("cancel rejected, order not found", "symbol", symbol, "orig_client_order_id", origClientOrderID)
		exec = e.rejectedResponse(symbol, origClientOrderID, clientOrderID)
	} else {
		order.Status = StatusCancelled
		exec = &Execution{
			ExecID:            e.nextExecID(),
			OrderID:           order.OrderID,
			ClientOrderID:     clientOrderID,
			OrigClientOrderID: origClientOrderID,
			Symbol:            order.Symbol,
			Side:              order.Side,
			Price:             decimal.Zero,
			LeavesQty:         0,
			CumQty:            order.FilledQty,
			Type:              ExecCancelled,
			OrderStatus:       StatusCancelled,
			Timestamp:         time.Now(),
		}
		e.logger.Info("order cancelled",
			"order_id", order.OrderID,
			"orig_client_order_id", origClientOrderID,
			"symbol", symbol,
			"remaining_qty", order.RemainingQty)
	}
	book.mu.Unlock()

	execs := []*Execution{exec}
	e.emit(execs)
	return execs
}

// Amend is an atomic cancel-and-replace: on any validation failure the
// original order rests untouched and a single REJECTED execution is
// emitted; otherwise the order is replaced under a new exchange id with
// fresh time priority and re-matched.
func (e *MatchingEngine) Amend(ctx context.Context, symbol, origClientOrderID, clientOrderID string, newQty *int64, newPrice *decimal.Decimal) []*Execution {
	book, ok := e.book(symbol)
	if !ok {
		e.logger.Warn("amend rejected, unknown symbol", "symbol", symbol, "orig_client_order_id", origClientOrderID)
		execs := []*Execution{e.rejectedResponse(symbol, origClientOrderID, clientOrderID)}
		e.emit(execs)
		return execs
	}

	book.mu.Lock()
	defer func() { book.mu.Unlock() }()

	original := book.LookupByClientID(origClientOrderID)
	if original == nil {
		e.logger.Warn("amend rejected, order not found", "symbol", symbol, "orig_client_order_id", origClientOrderID)
		execs := []*Execution{e.rejectedResponse(symbol, origClientOrderID, clientOrderID)}
		e.emit(execs)
		return execs
	}

	effectiveQty := original.Quantity
	if newQty != nil {
		effectiveQty = *newQty
	}
	if effectiveQty < original.FilledQty {
		e.logger.Warn("amend rejected, new quantity below filled",
			"orig_client_order_id", origClientOrderID,
			"new_qty", effectiveQty,
			"filled_qty", original.FilledQty)
		execs := []*Execution{e.rejectedResponse(symbol, origClientOrderID, clientOrderID)}
		e.emit(execs)
		return execs
	}

	book.RemoveByClientID(origClientOrderID)

	effectivePrice := original.Price
	if newPrice != nil {
		effectivePrice = *newPrice
	}

	amended := &Order{
		OrderID:       e.nextOrderID(),
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Side:          original.Side,
		Type:          original.Type,
		Price:         effectivePrice,
		Quantity:      effectiveQty,
		FilledQty:     original.FilledQty,
		RemainingQty:  effectiveQty - original.FilledQty,
		Status:        StatusNew,
		SenderID:      original.SenderID,
		TargetID:      original.TargetID,
		CreatedAt:     time.Now(),
	}

	execs := []*Execution{{
		ExecID:            e.nextExecID(),
		OrderID:           amended.OrderID,
		ClientOrderID:     clientOrderID,
		OrigClientOrderID: origClientOrderID,
		Symbol:            symbol,
		Side:              amended.Side,
		Price:             effectivePrice,
		LeavesQty:         amended.RemainingQty,
		CumQty:            amended.FilledQty,
		Type:              ExecReplaced,
		OrderStatus:       StatusNew,
		Timestamp:         time.Now(),
	}}

	e.logger.Info("order amended",
		"orig_client_order_id", origClientOrderID,
		"client_order_id", clientOrderID,
		"new_qty", effectiveQty,
		"new_price", effectivePrice)

	if amended.RemainingQty > 0 {
		execs = append(execs, e.match(amended, book)...)
		if amended.RemainingQty > 0 {
			if amended.Type == TypeLimit {
				book.Add(amended)
			} else {
				amended.Status = StatusRejected
				execs = append(execs, e.newExecution(amended, ExecRejected, decimal.Zero, 0))
			}
		}
	}

	e.emit(execs)
	return execs
}

// match runs the matching loop for an incoming order against its book.
// The caller holds the book lock.
func (e *MatchingEngine) match(order *Order, book *OrderBook) []*Execution {
	var execs []*Execution
	for order.RemainingQty > 0 {
		var counter *Order
		if order.Side == SideBuy {
			counter = book.BestAsk()
		} else {
			counter = book.BestBid()
		}
		if counter == nil {
			break
		}

		if order.Type == TypeLimit {
			if order.Side == SideBuy && order.Price.LessThan(counter.Price) {
				break
			}
			if order.Side == SideSell && order.Price.GreaterThan(counter.Price) {
				break
			}
		}

		execs = append(execs, e.executeMatch(order, counter, book)...)
	}
	return execs
}

// executeMatch fills the crossing pair at the resting order's price and
// emits the (aggressor, passive) execution pair.
func (e *MatchingEngine) executeMatch(aggressor, passive *Order, book *OrderBook) []*Execution {
	matchQty := aggressor.RemainingQty
	if passive.RemainingQty < matchQty {
		matchQty = passive.RemainingQty
	}
	matchPrice := passive.Price

	e.applyFill(aggressor, matchQty)
	e.applyFill(passive, matchQty)

	execs := []*Execution{
		e.newExecution(aggressor, fillExecType(aggressor), matchPrice, matchQty),
		e.newExecution(passive, fillExecType(passive), matchPrice, matchQty),
	}

	if passive.RemainingQty == 0 {
		book.RemoveByOrderID(passive.OrderID)
	}

	e.logger.Info("match",
		"symbol", aggressor.Symbol,
		"qty", matchQty,
		"price", matchPrice,
		"aggressor", aggressor.OrderID,
		"passive", passive.OrderID)

	return execs
}

func (e *MatchingEngine) applyFill(order *Order, qty int64) {
	order.FilledQty += qty
	order.RemainingQty -= qty
	if order.RemainingQty == 0 {
		order.Status = StatusFilled
	} else {
		order.Status = StatusPartiallyFilled
	}
}

func fillExecType(order *Order) ExecType {
	if order.RemainingQty == 0 {
		return ExecFill
	}
	return ExecPartialFill
}

func (e *MatchingEngine) newExecution(order *Order, execType ExecType, price decimal.Decimal, qty int64) *Execution {
	return &Execution{
		ExecID:        e.nextExecID(),
		OrderID:       order.OrderID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Price:         price,
		Quantity:      qty,
		LeavesQty:     order.RemainingQty,
		CumQty:        order.FilledQty,
		Type:          execType,
		OrderStatus:   order.Status,
		Timestamp:     time.Now(),
	}
}

func (e *MatchingEngine) rejectedResponse(symbol, origClientOrderID, clientOrderID string) *Execution {
	return &Execution{
		ExecID:            e.nextExecID(),
		OrderID:           origClientOrderID,
		ClientOrderID:     clientOrderID,
		OrigClientOrderID: origClientOrderID,
		Symbol:            symbol,
		Price:             decimal.Zero,
		Type:              ExecRejected,
		OrderStatus:       StatusRejected,
		Timestamp:         time.Now(),
	}
}

// emit hands a batch to the sink. The sink contract is enqueue-only, so
// calling it with the book lock held (amend path) cannot block matching.
func (e *MatchingEngine) emit(execs []*Execution) {
	if e.sink != nil {
		e.sink(execs)
	}
}

// Snapshot returns an aggregated depth view of one book, or nil when the
// symbol has never traded.
func (e *MatchingEngine) Snapshot(symbol string, depth int) *BookSnapshot {
	book, ok := e.book(symbol)
	if !ok {
		return nil
	}
	book.mu.Lock()
	defer book.mu.Unlock()
	return &BookSnapshot{
		Symbol:    symbol,
		Bids:      book.collectLevels(book.bids, depth),
		Asks:      book.collectLevels(book.asks, depth),
		Timestamp: time.Now().Unix(),
	}
}

// Symbols lists every symbol with a book, sorted.
func (e *MatchingEngine) Symbols() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	symbols := make([]string, 0, len(e.books))
	for s := range e.books {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
