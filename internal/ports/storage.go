package ports

import (
	"context"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

// ExecutionStorePort keeps finished execution traces for later display.
type ExecutionStorePort interface {
	Save(ctx context.Context, execution *domain.Execution) error
	Get(ctx context.Context, id string) (*domain.Execution, error)
	List(ctx context.Context, limit int) ([]*domain.Execution, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
