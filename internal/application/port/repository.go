package port

import (
	"context"

	"github.com/garyjia/approval-flow/internal/domain/entity"
)

// ItemRepository defines persistence operations for approvable items
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetByReference(ctx context.Context, reference string) (*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	List(ctx context.Context, limit, offset int) ([]*entity.Item, error)
	ListAll(ctx context.Context) ([]*entity.Item, error)
	Count(ctx context.Context) (int, error)
}

// DecisionRepository defines persistence operations for the decision trail
type DecisionRepository interface {
	Create(ctx context.Context, record *entity.DecisionRecord) error
	ListByItemID(ctx context.Context, itemID string) ([]*entity.DecisionRecord, error)
}

// TransactionManager runs a function within a database transaction carried
// through the context
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
