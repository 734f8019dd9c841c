package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/approval-flow/internal/domain/entity"
	"github.com/garyjia/approval-flow/internal/domain/workflow"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestEngine(opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(opts...)
}

func pendingItem(id string) *entity.Item {
	amount := decimal.NewFromInt(150)
	return &entity.Item{
		ID:          id,
		Title:       "Taxi receipts",
		Kind:        "expense-claim",
		Amount:      &amount,
		SubmittedBy: "user-1",
		SubmittedAt: fixedNow.Add(-time.Hour),
		Status:      workflow.StatePendingApproval,
	}
}

func TestEngine_Approve(t *testing.T) {
	e := newTestEngine()
	item := pendingItem("a1")

	decided, record, err := e.Approve(context.Background(), item, "reviewer-1", "looks fine")
	if err != nil {
		t.Fatalf("Approve() failed: %v", err)
	}

	if decided.Status != workflow.StateApproved {
		t.Errorf("Status = %v, want %v", decided.Status, workflow.StateApproved)
	}
	if decided.DecidedBy != "reviewer-1" {
		t.Errorf("DecidedBy = %q, want reviewer-1", decided.DecidedBy)
	}
	if decided.DecidedAt == nil || !decided.DecidedAt.Equal(fixedNow) {
		t.Errorf("DecidedAt = %v, want %v", decided.DecidedAt, fixedNow)
	}
	if decided.RejectionReason != "" {
		t.Errorf("RejectionReason = %q, want empty", decided.RejectionReason)
	}
	if err := decided.Validate(); err != nil {
		t.Errorf("decided item fails validation: %v", err)
	}

	if record.ActionType != entity.ActionApprove {
		t.Errorf("record.ActionType = %q, want %q", record.ActionType, entity.ActionApprove)
	}
	if record.PreviousStatus != workflow.StatePendingApproval || record.NewStatus != workflow.StateApproved {
		t.Errorf("record transition = %s -> %s", record.PreviousStatus, record.NewStatus)
	}
	if record.Comments != "looks fine" {
		t.Errorf("record.Comments = %q", record.Comments)
	}

	// Source item stays pending
	if item.Status != workflow.StatePendingApproval {
		t.Errorf("input item mutated to %v", item.Status)
	}
}

func TestEngine_Approve_InvalidTransition(t *testing.T) {
	e := newTestEngine()

	for _, status := range []workflow.State{workflow.StateDraft, workflow.StateApproved, workflow.StateRejected} {
		t.Run(string(status), func(t *testing.T) {
			item := pendingItem("a1")
			item.Status = status

			_, _, err := e.Approve(context.Background(), item, "reviewer-1", "")
			if !errors.Is(err, workflow.ErrInvalidTransition) {
				t.Errorf("Approve() error = %v, want %v", err, workflow.ErrInvalidTransition)
			}
		})
	}
}

func TestEngine_Reject(t *testing.T) {
	e := newTestEngine()
	item := pendingItem("a1")

	decided, record, err := e.Reject(context.Background(), item, "reviewer-1", entity.ReasonDuplicateEntry, "")
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}

	if decided.Status != workflow.StateRejected {
		t.Errorf("Status = %v, want %v", decided.Status, workflow.StateRejected)
	}
	if decided.RejectionReason != entity.ReasonDuplicateEntry {
		t.Errorf("RejectionReason = %q, want %q", decided.RejectionReason, entity.ReasonDuplicateEntry)
	}
	if decided.DecidedBy != "reviewer-1" || decided.DecidedAt == nil {
		t.Error("decision audit fields not set")
	}
	if err := decided.Validate(); err != nil {
		t.Errorf("decided item fails validation: %v", err)
	}
	if record.Reason != entity.ReasonDuplicateEntry {
		t.Errorf("record.Reason = %q", record.Reason)
	}
}

func TestEngine_Reject_MissingReason(t *testing.T) {
	e := newTestEngine()
	item := pendingItem("a1")
	before := *item

	_, _, err := e.Reject(context.Background(), item, "reviewer-1", "", "some comments")
	if !errors.Is(err, ErrMissingReason) {
		t.Fatalf("Reject() error = %v, want %v", err, ErrMissingReason)
	}

	if !reflect.DeepEqual(before, *item) {
		t.Error("refused Reject() must leave the item unchanged")
	}
}

func TestEngine_Reject_UnknownReason(t *testing.T) {
	e := newTestEngine()
	item := pendingItem("a1")

	_, _, err := e.Reject(context.Background(), item, "reviewer-1", "Because", "")
	if !errors.Is(err, ErrUnknownReason) {
		t.Fatalf("Reject() error = %v, want %v", err, ErrUnknownReason)
	}
}

func TestEngine_Reject_CustomReasons(t *testing.T) {
	e := newTestEngine(WithReasons(entity.NewReasonList("Over Budget")))
	item := pendingItem("a1")

	decided, _, err := e.Reject(context.Background(), item, "reviewer-1", "Over Budget", "")
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if decided.RejectionReason != "Over Budget" {
		t.Errorf("RejectionReason = %q", decided.RejectionReason)
	}
}

func TestEngine_Submit(t *testing.T) {
	e := newTestEngine()
	item := pendingItem("a1")
	item.Status = workflow.StateDraft

	submitted, record, err := e.Submit(context.Background(), item, "user-1")
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	if submitted.Status != workflow.StatePendingApproval {
		t.Errorf("Status = %v, want %v", submitted.Status, workflow.StatePendingApproval)
	}
	if submitted.DecidedBy != "" || submitted.DecidedAt != nil {
		t.Error("Submit() must not set decision audit fields")
	}
	if record.ActionType != entity.ActionSubmit {
		t.Errorf("record.ActionType = %q", record.ActionType)
	}
}

func TestEngine_Submit_AlreadyPending(t *testing.T) {
	e := newTestEngine()
	item := pendingItem("a1")

	_, _, err := e.Submit(context.Background(), item, "user-1")
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Errorf("Submit() error = %v, want %v", err, workflow.ErrInvalidTransition)
	}
}
