package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/exchangesim/internal/exchange/domain"
)

type executionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) domain.ExecutionRepository {
	return &executionRepository{db: db}
}

// AutoMigrate creates the executions table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ExecutionModel{})
}

func (r *executionRepository) Save(ctx context.Context, exec *domain.Execution) error {
	return r.db.WithContext(ctx).Create(toModel(exec)).Error
}

func (r *executionRepository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.Execution, error) {
	var models []*ExecutionModel
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("timestamp desc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	execs := make([]*domain.Execution, 0, len(models))
	for _, m := range models {
		execs = append(execs, toDomain(m))
	}
	return execs, nil
}

func (r *executionRepository) ListByOrderID(ctx context.Context, orderID string) ([]*domain.Execution, error) {
	var models []*ExecutionModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("timestamp asc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	execs := make([]*domain.Execution, 0, len(models))
	for _, m := range models {
		execs = append(execs, toDomain(m))
	}
	return execs, nil
}
