package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/exchangesim/internal/exchange/domain"
)

const defaultCapacity = 10000

// executionRepository keeps the most recent executions in memory. Oldest
// entries are evicted once the capacity is reached.
type executionRepository struct {
	mu       sync.Mutex
	execs    []*domain.Execution
	capacity int
}

func NewExecutionRepository() domain.ExecutionRepository {
	return &executionRepository{capacity: defaultCapacity}
}

func (r *executionRepository) Save(ctx context.Context, exec *domain.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.execs = append(r.execs, exec)
	if len(r.execs) > r.capacity {
		r.execs = r.execs[len(r.execs)-r.capacity:]
	}
	return nil
}

func (r *executionRepository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Execution, 0, limit)
	for i := len(r.execs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.execs[i].Symbol == symbol {
			out = append(out, r.execs[i])
		}
	}
	return out, nil
}

func (r *executionRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Execution
	for _, exec := range r.execs {
		if exec.OrderID == orderID {
			out = append(out, exec)
		}
	}
	return out, nil
}
