// Package application exposes the venue's command facade: it validates
// inbound commands, drives the matching engine and fans emitted executions
// out to the journal and the report publisher.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exchangesim/internal/exchange/domain"
)

// ExecutionPublisher delivers execution reports to downstream consumers.
type ExecutionPublisher interface {
	Publish(ctx context.Context, report *ExecutionReport) error
	Close() error
}

const executionBuffer = 4096

// ExchangeService is the order-entry facade over the matching engine.
type ExchangeService struct {
	engine    *domain.MatchingEngine
	execs     domain.ExecutionRepository
	publisher ExecutionPublisher
	logger    *slog.Logger

	execCh chan *domain.Execution
	wg     sync.WaitGroup
}

func NewExchangeService(
	engine *domain.MatchingEngine,
	execs domain.ExecutionRepository,
	publisher ExecutionPublisher,
	logger *slog.Logger,
) *ExchangeService {
	s := &ExchangeService{
		engine:    engine,
		execs:     execs,
		publisher: publisher,
		logger:    logger,
		execCh:    make(chan *domain.Execution, executionBuffer),
	}

	// The engine sink must not block matching; it only enqueues. The drain
	// worker journals and publishes off the hot path.
	engine.SetExecutionSink(s.enqueue)
	s.wg.Add(1)
	go s.drain()

	return s
}

func (s *ExchangeService) enqueue(execs []*domain.Execution) {
	for _, exec := range execs {
		select {
		case s.execCh <- exec:
		default:
			s.logger.Warn("execution pipeline full, report dropped", "exec_id", exec.ExecID)
		}
	}
}

func (s *ExchangeService) drain() {
	defer s.wg.Done()
	ctx := context.Background()
	for exec := range s.execCh {
		if err := s.execs.Save(ctx, exec); err != nil {
			s.logger.Error("failed to journal execution", "exec_id", exec.ExecID, "error", err)
		}
		if err := s.publisher.Publish(ctx, toReport(exec)); err != nil {
			s.logger.Error("failed to publish execution report", "exec_id", exec.ExecID, "error", err)
		}
	}
}

// Close stops the execution pipeline after the queue drains.
func (s *ExchangeService) Close() error {
	close(s.execCh)
	s.wg.Wait()
	return s.publisher.Close()
}

// SubmitOrder translates a new-order command into an engine submit.
func (s *ExchangeService) SubmitOrder(ctx context.Context, cmd *SubmitOrderCommand) ([]*ExecutionReport, error) {
	order := &domain.Order{
		ClientOrderID: cmd.ClientOrderID,
		Symbol:        strings.ToUpper(cmd.Symbol),
		Side:          domain.Side(strings.ToUpper(cmd.Side)),
		Type:          domain.OrderType(strings.ToUpper(cmd.Type)),
		Quantity:      cmd.Quantity,
		SenderID:      cmd.SenderID,
		TargetID:      cmd.TargetID,
	}

	if cmd.Price != "" {
		price, err := decimal.NewFromString(cmd.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", cmd.Price, err)
		}
		order.Price = price
	}

	execs, err := s.engine.Submit(ctx, order)
	if err != nil {
		return nil, err
	}
	return toReports(execs), nil
}

// CancelOrder translates a cancel-request into an engine cancel.
func (s *ExchangeService) CancelOrder(ctx context.Context, cmd *CancelOrderCommand) []*ExecutionReport {
	execs := s.engine.Cancel(ctx, strings.ToUpper(cmd.Symbol), cmd.OrigClientOrderID, cmd.ClientOrderID)
	return toReports(execs)
}

// AmendOrder translates an amend-request into an engine cancel-and-replace.
func (s *ExchangeService) AmendOrder(ctx context.Context, cmd *AmendOrderCommand) ([]*ExecutionReport, error) {
	var newPrice *decimal.Decimal
	if cmd.NewPrice != "" {
		price, err := decimal.NewFromString(cmd.NewPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", cmd.NewPrice, err)
		}
		newPrice = &price
	}

	execs := s.engine.Amend(ctx, strings.ToUpper(cmd.Symbol), cmd.OrigClientOrderID, cmd.ClientOrderID, cmd.NewQuantity, newPrice)
	return toReports(execs), nil
}

// GetOrderBook returns an aggregated depth snapshot, or nil for an untouched
// symbol.
func (s *ExchangeService) GetOrderBook(symbol string, depth int) *domain.BookSnapshot {
	return s.engine.Snapshot(strings.ToUpper(symbol), depth)
}

// Symbols lists every symbol with a book.
func (s *ExchangeService) Symbols() []string {
	return s.engine.Symbols()
}

// GetExecutions returns the most recent executions for a symbol.
func (s *ExchangeService) GetExecutions(ctx context.Context, symbol string, limit int) ([]*ExecutionReport, error) {
	execs, err := s.execs.ListBySymbol(ctx, strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, err
	}
	return toReports(execs), nil
}

// GetExecutionsByOrder returns the execution history of one exchange order.
func (s *ExchangeService) GetExecutionsByOrder(ctx context.Context, orderID string) ([]*ExecutionReport, error) {
	execs, err := s.execs.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toReports(execs), nil
}

func toReports(execs []*domain.Execution) []*ExecutionReport {
	reports := make([]*ExecutionReport, 0, len(execs))
	for _, exec := range execs {
		reports = append(reports, toReport(exec))
	}
	return reports
}

func toReport(exec *domain.Execution) *ExecutionReport {
	report := &ExecutionReport{
		ExecID:            exec.ExecID,
		OrderID:           exec.OrderID,
		ClientOrderID:     exec.ClientOrderID,
		OrigClientOrderID: exec.OrigClientOrderID,
		Symbol:            exec.Symbol,
		Side:              string(exec.Side),
		ExecType:          string(exec.Type),
		OrderStatus:       string(exec.OrderStatus),
		LeavesQty:         exec.LeavesQty,
		CumQty:            exec.CumQty,
		AvgPrice:          "0",
		Timestamp:         exec.Timestamp.UnixNano(),
	}
	if exec.IsFillEvent() {
		// Fill prices keep at least two fractional digits ("10.00", not "10").
		price := exec.Price.StringFixed(max(int32(2), -exec.Price.Exponent()))
		report.AvgPrice = price
		report.LastQty = exec.Quantity
		report.LastPrice = price
	}
	return report
}
