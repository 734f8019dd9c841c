package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/approval-flow/internal/domain/workflow"
)

// Priority is a display-only ordering hint; it carries no behavioral weight
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// IsValid returns true if the priority is a known value or empty
func (p Priority) IsValid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Item is any business record subject to the approval workflow: journal
// entries, purchase requisitions, expense claims, petty-cash transactions.
// The workflow core only depends on the common fields; concrete business
// object types stow their own attributes in Metadata.
type Item struct {
	ID              string            `json:"id"`
	Reference       string            `json:"reference,omitempty"`
	Title           string            `json:"title"`
	Kind            string            `json:"kind"`
	Amount          *decimal.Decimal  `json:"amount,omitempty"`
	SubmittedBy     string            `json:"submitted_by"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	Status          workflow.State    `json:"status"`
	DecidedBy       string            `json:"decided_by,omitempty"`
	DecidedAt       *time.Time        `json:"decided_at,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	Priority        Priority          `json:"priority,omitempty"`
	Description     string            `json:"description,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the item
func (i *Item) Clone() *Item {
	clone := *i

	if i.Amount != nil {
		amount := *i.Amount
		clone.Amount = &amount
	}

	if i.DecidedAt != nil {
		decidedAt := *i.DecidedAt
		clone.DecidedAt = &decidedAt
	}

	if i.Metadata != nil {
		clone.Metadata = make(map[string]string, len(i.Metadata))
		for k, v := range i.Metadata {
			clone.Metadata[k] = v
		}
	}

	return &clone
}

// AmountOrZero returns the item amount, treating a missing amount as zero
func (i *Item) AmountOrZero() decimal.Decimal {
	if i.Amount == nil {
		return decimal.Zero
	}
	return *i.Amount
}

// Validate checks the structural invariants of the item
func (i *Item) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("item id is required")
	}
	if i.Title == "" {
		return fmt.Errorf("item title is required")
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if !i.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", i.Priority)
	}
	if i.Amount != nil && i.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative: %s", i.Amount)
	}

	// Rejection reason iff rejected
	if i.Status == workflow.StateRejected && i.RejectionReason == "" {
		return fmt.Errorf("rejected item requires a rejection reason")
	}
	if i.Status != workflow.StateRejected && i.RejectionReason != "" {
		return fmt.Errorf("rejection reason set on %s item", i.Status)
	}

	// Decision audit fields iff terminal
	decided := i.DecidedBy != "" && i.DecidedAt != nil
	if i.Status.IsTerminal() && !decided {
		return fmt.Errorf("%s item requires decided_by and decided_at", i.Status)
	}
	if !i.Status.IsTerminal() && (i.DecidedBy != "" || i.DecidedAt != nil) {
		return fmt.Errorf("decision fields set on %s item", i.Status)
	}

	return nil
}
