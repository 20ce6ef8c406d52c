package mysql

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/exchangesim/internal/exchange/domain"
)

// ExecutionModel is the GORM mapping of a journaled execution.
type ExecutionModel struct {
	gorm.Model
	ExecID            string          `gorm:"column:exec_id;type:varchar(32);uniqueIndex;not null"`
	OrderID           string          `gorm:"column:order_id;type:varchar(32);index;not null"`
	ClientOrderID     string          `gorm:"column:client_order_id;type:varchar(64);index"`
	OrigClientOrderID string          `gorm:"column:orig_client_order_id;type:varchar(64)"`
	Symbol            string          `gorm:"column:symbol;type:varchar(20);index;not null"`
	Side              string          `gorm:"column:side;type:varchar(8)"`
	Price             decimal.Decimal `gorm:"column:price;type:decimal(20,8)"`
	Quantity          int64           `gorm:"column:quantity"`
	LeavesQty         int64           `gorm:"column:leaves_qty"`
	CumQty            int64           `gorm:"column:cum_qty"`
	ExecType          string          `gorm:"column:exec_type;type:varchar(16)"`
	OrderStatus       string          `gorm:"column:order_status;type:varchar(20)"`
	Timestamp         int64           `gorm:"column:timestamp;type:bigint;index"`
}

func (ExecutionModel) TableName() string { return "executions" }

func toModel(exec *domain.Execution) *ExecutionModel {
	return &ExecutionModel{
		ExecID:            exec.ExecID,
		OrderID:           exec.OrderID,
		ClientOrderID:     exec.ClientOrderID,
		OrigClientOrderID: exec.OrigClientOrderID,
		Symbol:            exec.Symbol,
		Side:              string(exec.Side),
		Price:             exec.Price,
		Quantity:          exec.Quantity,
		LeavesQty:         exec.LeavesQty,
		CumQty:            exec.CumQty,
		ExecType:          string(exec.Type),
		OrderStatus:       string(exec.OrderStatus),
		Timestamp:         exec.Timestamp.UnixNano(),
	}
}

func toDomain(m *ExecutionModel) *domain.Execution {
	return &domain.Execution{
		ExecID:            m.ExecID,
		OrderID:           m.OrderID,
		ClientOrderID:     m.ClientOrderID,
		OrigClientOrderID: m.OrigClientOrderID,
		Symbol:            m.Symbol,
		Side:              domain.Side(m.Side),
		Price:             m.Price,
		Quantity:          m.Quantity,
		LeavesQty:         m.LeavesQty,
		CumQty:            m.CumQty,
		Type:              domain.ExecType(m.ExecType),
		OrderStatus:       domain.OrderStatus(m.OrderStatus),
		Timestamp:         time.Unix(0, m.Timestamp),
	}
}
