package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garyjia/approval-flow/internal/application/dispatcher"
	"github.com/garyjia/approval-flow/internal/application/port"
	"github.com/garyjia/approval-flow/internal/domain/engine"
	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/event"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
	"github.com/garyjia/approval-flow/internal/presenter"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ErrNotFound is returned when an item does not exist
var ErrNotFound = fmt.Errorf("item not found")

// CreateItemInput carries the fields an external collaborator supplies when
// creating an item
type CreateItemInput struct {
	// Reference is an optional client-supplied idempotency key; creating
	// twice with the same reference returns the already stored item
	Reference   string
	Title       string
	Kind        string
	Amount      *decimal.Decimal
	SubmittedBy string
	Priority    entity.Priority
	Description string
	Metadata    map[string]string

	// SubmitNow files the item directly into review instead of draft
	SubmitNow bool
}

// ApprovalService manages the lifecycle of approvable items
type ApprovalService interface {
	Create(ctx context.Context, input CreateItemInput) (*entity.Item, error)
	Get(ctx context.Context, id string) (*entity.Item, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Item, int, error)
	ListAll(ctx context.Context) ([]*entity.Item, error)
	History(ctx context.Context, itemID string) ([]*entity.DecisionRecord, error)
	Submit(ctx context.Context, id, actorID string) (*entity.Item, error)
	Approve(ctx context.Context, id, actorID, comments string) (*entity.Item, error)
	Reject(ctx context.Context, id, actorID, reason, comments string) (*entity.Item, error)
	Summary(ctx context.Context) (presenter.Summary, error)
	Reasons() entity.ReasonList
}

type approvalServiceImpl struct {
	itemRepo     port.ItemRepository
	decisionRepo port.DecisionRepository
	txManager    port.TransactionManager
	engine       *engine.Engine
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	itemRepo port.ItemRepository,
	decisionRepo port.DecisionRepository,
	txManager port.TransactionManager,
	eng *engine.Engine,
	d dispatcher.Dispatcher,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		itemRepo:     itemRepo,
		decisionRepo: decisionRepo,
		txManager:    txManager,
		engine:       eng,
		dispatcher:   d,
		logger:       logger,
	}
}

// Create persists a new item in draft or pending status
func (s *approvalServiceImpl) Create(ctx context.Context, input CreateItemInput) (*entity.Item, error) {
	if input.Reference != "" {
		existing, err := s.itemRepo.GetByReference(ctx, input.Reference)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Item already exists for reference", "id", existing.ID, "reference", input.Reference)
			return existing, nil
		}
	}

	now := time.Now()

	item := &entity.Item{
		ID:          uuid.NewString(),
		Reference:   input.Reference,
		Title:       input.Title,
		Kind:        input.Kind,
		Amount:      input.Amount,
		SubmittedBy: input.SubmittedBy,
		SubmittedAt: now,
		Status:      workflow.StateDraft,
		Priority:    input.Priority,
		Description: input.Description,
		Metadata:    input.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.SubmitNow {
		item.Status = workflow.StatePendingApproval
	}

	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("invalid item: %w", err)
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Create(txCtx, item); err != nil {
			return fmt.Errorf("create item: %w", err)
		}

		record := &entity.DecisionRecord{
			ItemID:         item.ID,
			ActorID:        item.SubmittedBy,
			ActionType:     entity.ActionCreate,
			PreviousStatus: "",
			NewStatus:      item.Status,
			DecidedAt:      now,
		}
		if err := s.decisionRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create decision record: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create item", "error", err, "kind", input.Kind)
		return nil, err
	}

	s.logger.Info("Item created", "id", item.ID, "kind", item.Kind, "status", item.Status)
	s.dispatch(ctx, event.TypeItemCreated, item, nil)
	return item, nil
}

// Get retrieves an item by ID
func (s *approvalServiceImpl) Get(ctx context.Context, id string) (*entity.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get item", "error", err, "id", id)
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, nil
}

// List retrieves a page of items plus the total item count
func (s *approvalServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Item, int, error) {
	items, err := s.itemRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list items", "error", err, "limit", limit, "offset", offset)
		return nil, 0, err
	}

	total, err := s.itemRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListAll retrieves every item, ordered by creation time
func (s *approvalServiceImpl) ListAll(ctx context.Context) ([]*entity.Item, error) {
	items, err := s.itemRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list all items", "error", err)
		return nil, err
	}
	return items, nil
}

// History retrieves the decision trail of an item
func (s *approvalServiceImpl) History(ctx context.Context, itemID string) ([]*entity.DecisionRecord, error) {
	if _, err := s.Get(ctx, itemID); err != nil {
		return nil, err
	}
	return s.decisionRepo.ListByItemID(ctx, itemID)
}

// Submit files a draft item into review
func (s *approvalServiceImpl) Submit(ctx context.Context, id, actorID string) (*entity.Item, error) {
	return s.decide(ctx, id, event.TypeItemSubmitted, func(item *entity.Item) (*entity.Item, *entity.DecisionRecord, error) {
		return s.engine.Submit(ctx, item, actorID)
	})
}

// Approve decides a pending item as approved
func (s *approvalServiceImpl) Approve(ctx context.Context, id, actorID, comments string) (*entity.Item, error) {
	return s.decide(ctx, id, event.TypeItemApproved, func(item *entity.Item) (*entity.Item, *entity.DecisionRecord, error) {
		return s.engine.Approve(ctx, item, actorID, comments)
	})
}

// Reject decides a pending item as rejected with a reason code
func (s *approvalServiceImpl) Reject(ctx context.Context, id, actorID, reason, comments string) (*entity.Item, error) {
	return s.decide(ctx, id, event.TypeItemRejected, func(item *entity.Item) (*entity.Item, *entity.DecisionRecord, error) {
		return s.engine.Reject(ctx, item, actorID, reason, comments)
	})
}

// decide loads the item, applies the pure decision, and persists the decided
// copy together with its audit record in one transaction
func (s *approvalServiceImpl) decide(ctx context.Context, id string, eventType event.Type, apply func(*entity.Item) (*entity.Item, *entity.DecisionRecord, error)) (*entity.Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	decided, record, err := apply(item)
	if err != nil {
		s.logger.Error("Decision refused", "error", err, "id", id, "status", item.Status)
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.itemRepo.Update(txCtx, decided); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		if err := s.decisionRepo.Create(txCtx, record); err != nil {
			return fmt.Errorf("create decision record: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist decision", "error", err, "id", id)
		return nil, err
	}

	s.logger.Info("Item decided",
		"id", id,
		"action", record.ActionType,
		"from", record.PreviousStatus,
		"to", record.NewStatus,
		"actor", record.ActorID,
	)

	s.dispatch(ctx, eventType, decided, record)
	return decided, nil
}

// Summary aggregates all items per status
func (s *approvalServiceImpl) Summary(ctx context.Context) (presenter.Summary, error) {
	items, err := s.itemRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load items for summary", "error", err)
		return presenter.Summary{}, err
	}
	return presenter.Summarize(items), nil
}

// Reasons returns the rejection reasons offered to reviewers
func (s *approvalServiceImpl) Reasons() entity.ReasonList {
	return s.engine.Reasons()
}

func (s *approvalServiceImpl) dispatch(ctx context.Context, eventType event.Type, item *entity.Item, record *entity.DecisionRecord) {
	if s.dispatcher == nil {
		return
	}

	payload := map[string]interface{}{
		"kind":   item.Kind,
		"status": item.Status.String(),
	}
	if record != nil {
		payload["actor_id"] = record.ActorID
		if record.Reason != "" {
			payload["reason"] = record.Reason
		}
	}

	s.dispatcher.DispatchAsync(ctx, event.NewEvent(eventType, item.ID, payload))
}
