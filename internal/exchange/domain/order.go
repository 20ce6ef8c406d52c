// Package domain holds the venue's order model, the per-symbol order book
// and the matching engine.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OrderType string

const (
	TypeLimit  OrderType = "LIMIT"
	TypeMarket OrderType = "MARKET"
)

type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
	StatusRejected        OrderStatus = "REJECTED"
)

// Terminal reports whether the status is permanent.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

type ExecType string

const (
	ExecNew         ExecType = "NEW"
	ExecPartialFill ExecType = "PARTIAL_FILL"
	ExecFill        ExecType = "FILL"
	ExecCancelled   ExecType = "CANCELLED"
	ExecReplaced    ExecType = "REPLACED"
	ExecRejected    ExecType = "REJECTED"
)

// Order is a trading instruction. OrderID is assigned by the engine;
// ClientOrderID comes from the submitting session and is unique per session.
// Invariant: FilledQty + RemainingQty == Quantity, FilledQty never decreases.
type Order struct {
	OrderID       string          `json:"order_id"`
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	Type          OrderType       `json:"type"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int64           `json:"quantity"`
	FilledQty     int64           `json:"filled_qty"`
	RemainingQty  int64           `json:"remaining_qty"`
	Status        OrderStatus     `json:"status"`
	SenderID      string          `json:"sender_id"`
	TargetID      string          `json:"target_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.RemainingQty == 0
}

// Execution is an immutable event describing one state transition of one
// order. Executions are the only visible output of the engine.
type Execution struct {
	ExecID        string          `json:"exec_id"`
	OrderID       string          `json:"order_id"`
	ClientOrderID string          `json:"client_order_id"`
	// OrigClientOrderID is set only on cancel and amend responses.
	OrigClientOrderID string          `json:"orig_client_order_id,omitempty"`
	Symbol            string          `json:"symbol"`
	Side              Side            `json:"side"`
	Price             decimal.Decimal `json:"price"`
	Quantity          int64           `json:"quantity"`
	LeavesQty         int64           `json:"leaves_qty"`
	CumQty            int64           `json:"cum_qty"`
	Type              ExecType        `json:"exec_type"`
	OrderStatus       OrderStatus     `json:"order_status"`
	Timestamp         time.Time       `json:"timestamp"`
}

// IsFillEvent reports whether the execution carries traded quantity.
func (e *Execution) IsFillEvent() bool {
	return e.Quantity > 0
}
