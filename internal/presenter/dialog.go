package presenter

import (
	"context"
	"fmt"

	"github.com/garyjia/approval-flow/internal/domain/engine"
	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
)

// DialogAction is the decision a dialog collects
type DialogAction string

const (
	DialogApprove DialogAction = "APPROVE"
	DialogReject  DialogAction = "REJECT"
)

// Dialog collects a reviewer's decision input before routing it through the
// presenter. It holds no business logic beyond input validation; closing it
// discards in-progress input with no side effects.
type Dialog struct {
	presenter *Presenter
	actorID   string

	open     bool
	itemID   string
	action   DialogAction
	comments string
	reason   string
}

// NewDialog creates a decision dialog bound to a presenter and reviewer
func NewDialog(p *Presenter, actorID string) *Dialog {
	return &Dialog{presenter: p, actorID: actorID}
}

// Open starts a decision for the given item. The action must be available in
// the item's current status.
func (d *Dialog) Open(itemID string, action DialogAction) error {
	item, ok := d.presenter.Item(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	if item.Status != workflow.StatePendingApproval {
		return fmt.Errorf("%w: cannot %s %s item %s", workflow.ErrInvalidTransition, action, item.Status, itemID)
	}

	d.open = true
	d.itemID = itemID
	d.action = action
	d.comments = ""
	d.reason = ""
	return nil
}

// IsOpen reports whether a decision is in progress
func (d *Dialog) IsOpen() bool {
	return d.open
}

// SetComments records optional reviewer comments
func (d *Dialog) SetComments(comments string) {
	d.comments = comments
}

// SetReason records the rejection reason
func (d *Dialog) SetReason(reason string) {
	d.reason = reason
}

// Reason returns the currently selected rejection reason
func (d *Dialog) Reason() string {
	return d.reason
}

// CanSubmit reports whether the collected input is complete: a reject
// without a reason cannot be submitted
func (d *Dialog) CanSubmit() bool {
	if !d.open {
		return false
	}
	if d.action == DialogReject && d.reason == "" {
		return false
	}
	return true
}

// Submit routes the decision through the presenter and clears the dialog on
// success. A refused submission leaves both the dialog and the item as they
// were.
func (d *Dialog) Submit(ctx context.Context) (*entity.Item, error) {
	if !d.open {
		return nil, fmt.Errorf("no decision in progress")
	}

	if d.action == DialogReject && d.reason == "" {
		return nil, engine.ErrMissingReason
	}

	var decided *entity.Item
	var err error

	switch d.action {
	case DialogApprove:
		decided, err = d.presenter.Approve(ctx, d.itemID, d.actorID, d.comments)
	case DialogReject:
		decided, err = d.presenter.Reject(ctx, d.itemID, d.actorID, d.reason, d.comments)
	default:
		return nil, fmt.Errorf("unknown dialog action: %s", d.action)
	}

	if err != nil {
		return nil, err
	}

	d.Close()
	return decided, nil
}

// Close discards the in-progress input
func (d *Dialog) Close() {
	d.open = false
	d.itemID = ""
	d.action = ""
	d.comments = ""
	d.reason = ""
}
