// Package engine holds the pure decision logic of the approval workflow.
// It maps an item and a reviewer decision to a new item copy plus an audit
// record; persistence and transport live elsewhere.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
)

var (
	// ErrMissingReason is returned when a reject decision carries no reason
	ErrMissingReason = errors.New("rejection reason is required")

	// ErrUnknownReason is returned when the reason is not in the allowed set
	ErrUnknownReason = errors.New("rejection reason not in allowed set")
)

// Engine applies approve/reject decisions to items. It never mutates its
// input; refused decisions leave the item untouched.
type Engine struct {
	reasons entity.ReasonList
	now     func() time.Time
}

// Option configures the engine
type Option func(*Engine)

// WithReasons replaces the allowed rejection reason list
func WithReasons(reasons entity.ReasonList) Option {
	return func(e *Engine) {
		e.reasons = reasons
	}
}

// WithClock replaces the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine with the default rejection reason list
func New(opts ...Option) *Engine {
	e := &Engine{
		reasons: entity.DefaultRejectionReasons(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Reasons returns the allowed rejection reason list
func (e *Engine) Reasons() entity.ReasonList {
	return e.reasons
}

// Submit moves a draft item into review
func (e *Engine) Submit(ctx context.Context, item *entity.Item, actorID string) (*entity.Item, *entity.DecisionRecord, error) {
	return e.transition(ctx, item, workflow.TriggerSubmit, actorID, "", "")
}

// Approve marks a pending item approved. Comments are audit-only and are
// recorded on the decision trail, not validated.
func (e *Engine) Approve(ctx context.Context, item *entity.Item, actorID, comments string) (*entity.Item, *entity.DecisionRecord, error) {
	return e.transition(ctx, item, workflow.TriggerApprove, actorID, "", comments)
}

// Reject marks a pending item rejected. The reason is mandatory and must be
// drawn from the allowed reason set.
func (e *Engine) Reject(ctx context.Context, item *entity.Item, actorID, reason, comments string) (*entity.Item, *entity.DecisionRecord, error) {
	if reason == "" {
		return nil, nil, ErrMissingReason
	}
	if !e.reasons.Contains(reason) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownReason, reason)
	}

	return e.transition(ctx, item, workflow.TriggerReject, actorID, reason, comments)
}

// transition drives the state machine and materializes the decided item copy
// together with its audit record
func (e *Engine) transition(ctx context.Context, item *entity.Item, trigger workflow.Trigger, actorID, reason, comments string) (*entity.Item, *entity.DecisionRecord, error) {
	machine, err := workflow.NewApprovalMachine(item.Status)
	if err != nil {
		return nil, nil, err
	}

	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, nil, fmt.Errorf("%s item %s: %w", trigger, item.ID, err)
	}

	now := e.now()
	decided := item.Clone()
	decided.Status = machine.State()
	decided.UpdatedAt = now

	if decided.Status.IsTerminal() {
		decided.DecidedBy = actorID
		decided.DecidedAt = &now
	}
	if decided.Status == workflow.StateRejected {
		decided.RejectionReason = reason
	}

	record := &entity.DecisionRecord{
		ItemID:         item.ID,
		ActorID:        actorID,
		ActionType:     string(trigger),
		PreviousStatus: item.Status,
		NewStatus:      decided.Status,
		Reason:         reason,
		Comments:       comments,
		DecidedAt:      now,
	}

	return decided, record, nil
}
