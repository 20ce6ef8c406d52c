package application

// SubmitOrderCommand is the inbound new-order message.
type SubmitOrderCommand struct {
	ClientOrderID string `json:"client_order_id" binding:"required"`
	Symbol        string `json:"symbol" binding:"required"`
	Side          string `json:"side" binding:"required"`
	Type          string `json:"type" binding:"required"`
	Quantity      int64  `json:"quantity" binding:"required"`
	Price         string `json:"price"`
	SenderID      string `json:"sender_id"`
	TargetID      string `json:"target_id"`
}

// CancelOrderCommand is the inbound cancel-request message.
type CancelOrderCommand struct {
	Symbol            string `json:"symbol" binding:"required"`
	OrigClientOrderID string `json:"orig_client_order_id" binding:"required"`
	ClientOrderID     string `json:"client_order_id" binding:"required"`
}

// AmendOrderCommand is the inbound amend-request message. NewQuantity and
// NewPrice are both optional; an omitted field keeps the original value.
type AmendOrderCommand struct {
	Symbol            string `json:"symbol" binding:"required"`
	OrigClientOrderID string `json:"orig_client_order_id" binding:"required"`
	ClientOrderID     string `json:"client_order_id" binding:"required"`
	NewQuantity       *int64 `json:"new_quantity"`
	NewPrice          string `json:"new_price"`
}

// ExecutionReport is the outbound execution-report message, one per engine
// execution. AvgPrice is the last fill price when LastQty > 0, else 0.
type ExecutionReport struct {
	ExecID            string `json:"exec_id"`
	OrderID           string `json:"order_id"`
	ClientOrderID     string `json:"client_order_id"`
	OrigClientOrderID string `json:"orig_client_order_id,omitempty"`
	Symbol            string `json:"symbol"`
	Side              string `json:"side"`
	ExecType          string `json:"exec_type"`
	OrderStatus       string `json:"order_status"`
	LeavesQty         int64  `json:"leaves_qty"`
	CumQty            int64  `json:"cum_qty"`
	AvgPrice          string `json:"avg_price"`
	LastQty           int64  `json:"last_qty,omitempty"`
	LastPrice         string `json:"last_price,omitempty"`
	Timestamp         int64  `json:"timestamp"`
}
