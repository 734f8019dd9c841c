// Package presenter exposes a headless view over a collection of approvable
// items: per-status summaries, actionable rows, and decision entry points.
// All persistence is delegated outward through caller-supplied callbacks.
package presenter

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garyjia/approval-flow/internal/domain/engine"
	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
)

// Action is a user-facing operation available on a row
type Action string

const (
	ActionReview  Action = "REVIEW"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionEdit    Action = "EDIT"
)

// ErrItemNotFound is returned when the requested item is not in the collection
var ErrItemNotFound = fmt.Errorf("item not found")

// Callbacks carry the decisions out to the owning persistence layer. OnEdit
// is optional; when nil the edit action is never offered.
type Callbacks struct {
	OnApprove func(ctx context.Context, item *entity.Item, comments string) error
	OnReject  func(ctx context.Context, item *entity.Item, reason, comments string) error
	OnEdit    func(ctx context.Context, item *entity.Item) error
}

// Row is one list entry with the actions available in its current status
type Row struct {
	Item    *entity.Item
	Actions []Action
}

// StatusSummary aggregates one status bucket
type StatusSummary struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary aggregates a whole collection per status
type Summary struct {
	TotalItems int                              `json:"total_items"`
	ByStatus   map[workflow.State]StatusSummary `json:"by_status"`
}

// ApprovedTotal returns the summed amount of approved items
func (s Summary) ApprovedTotal() decimal.Decimal {
	return s.ByStatus[workflow.StateApproved].Amount
}

// PendingCount returns the number of items awaiting a decision
func (s Summary) PendingCount() int {
	return s.ByStatus[workflow.StatePendingApproval].Count
}

// Summarize computes per-status counts and amount totals over a collection.
// Missing amounts count as zero; every status bucket is always present, so
// the counts sum to len(items).
func Summarize(items []*entity.Item) Summary {
	summary := Summary{
		TotalItems: len(items),
		ByStatus:   make(map[workflow.State]StatusSummary, len(workflow.States())),
	}

	for _, state := range workflow.States() {
		summary.ByStatus[state] = StatusSummary{Amount: decimal.Zero}
	}

	for _, item := range items {
		bucket := summary.ByStatus[item.Status]
		bucket.Count++
		bucket.Amount = bucket.Amount.Add(item.AmountOrZero())
		summary.ByStatus[item.Status] = bucket
	}

	return summary
}

// Presenter renders a collection of items and routes decisions through the
// status engine before invoking the external callbacks.
type Presenter struct {
	kind      string
	items     []*entity.Item
	callbacks Callbacks
	engine    *engine.Engine
}

// Option configures the presenter
type Option func(*Presenter)

// New creates a presenter over the given items. The kind label is used only
// for messaging; items keep their insertion order.
func New(kind string, items []*entity.Item, callbacks Callbacks, opts ...Option) *Presenter {
	p := &Presenter{
		kind:      kind,
		items:     append([]*entity.Item{}, items...),
		callbacks: callbacks,
		engine:    engine.New(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithEngine replaces the default status engine, e.g. to extend the
// rejection reason list
func WithEngine(e *engine.Engine) Option {
	return func(p *Presenter) {
		p.engine = e
	}
}

// Kind returns the collection's kind label
func (p *Presenter) Kind() string {
	return p.kind
}

// Reasons returns the rejection reasons offered to reviewers
func (p *Presenter) Reasons() entity.ReasonList {
	return p.engine.Reasons()
}

// Summary aggregates the current collection per status
func (p *Presenter) Summary() Summary {
	return Summarize(p.items)
}

// Rows returns the items in insertion order with their available actions
func (p *Presenter) Rows() []Row {
	rows := make([]Row, 0, len(p.items))
	for _, item := range p.items {
		rows = append(rows, Row{Item: item, Actions: p.actionsFor(item)})
	}
	return rows
}

// Item finds an item by ID
func (p *Presenter) Item(id string) (*entity.Item, bool) {
	for _, item := range p.items {
		if item.ID == id {
			return item, true
		}
	}
	return nil, false
}

// Approve decides an item and hands it to the OnApprove callback. The
// collection is only updated once the callback reports success.
func (p *Presenter) Approve(ctx context.Context, id, actorID, comments string) (*entity.Item, error) {
	item, ok := p.Item(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	decided, _, err := p.engine.Approve(ctx, item, actorID, comments)
	if err != nil {
		return nil, err
	}

	if p.callbacks.OnApprove != nil {
		if err := p.callbacks.OnApprove(ctx, decided, comments); err != nil {
			return nil, fmt.Errorf("approve %s %s: %w", p.kind, id, err)
		}
	}

	p.replace(decided)
	return decided, nil
}

// Reject decides an item and hands it to the OnReject callback. The reason
// must be non-empty and drawn from the allowed reason list.
func (p *Presenter) Reject(ctx context.Context, id, actorID, reason, comments string) (*entity.Item, error) {
	item, ok := p.Item(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	decided, _, err := p.engine.Reject(ctx, item, actorID, reason, comments)
	if err != nil {
		return nil, err
	}

	if p.callbacks.OnReject != nil {
		if err := p.callbacks.OnReject(ctx, decided, reason, comments); err != nil {
			return nil, fmt.Errorf("reject %s %s: %w", p.kind, id, err)
		}
	}

	p.replace(decided)
	return decided, nil
}

// Edit delegates to the optional edit collaborator
func (p *Presenter) Edit(ctx context.Context, id string) error {
	item, ok := p.Item(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	if p.callbacks.OnEdit == nil {
		return fmt.Errorf("no edit collaborator for %s items", p.kind)
	}

	if !canEdit(item.Status) {
		return fmt.Errorf("%w: cannot edit %s item %s", workflow.ErrInvalidTransition, item.Status, id)
	}

	return p.callbacks.OnEdit(ctx, item)
}

// actionsFor computes the actions available for an item's current status.
// Review is always offered; approve/reject only while pending; edit only for
// draft or rejected items and only when an edit collaborator was supplied.
func (p *Presenter) actionsFor(item *entity.Item) []Action {
	actions := []Action{ActionReview}

	if item.Status == workflow.StatePendingApproval {
		actions = append(actions, ActionApprove, ActionReject)
	}

	if p.callbacks.OnEdit != nil && canEdit(item.Status) {
		actions = append(actions, ActionEdit)
	}

	return actions
}

func canEdit(status workflow.State) bool {
	return status == workflow.StateDraft || status == workflow.StateRejected
}

// replace swaps the stored item for its decided copy, keeping list order
func (p *Presenter) replace(decided *entity.Item) {
	for i, item := range p.items {
		if item.ID == decided.ID {
			p.items[i] = decided
			return
		}
	}
}
