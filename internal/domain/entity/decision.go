package entity

import (
	"time"

	"github.com/garyjia/approval-flow/internal/domain/workflow"
)

// Action types recorded in the decision trail
const (
	ActionCreate  = "CREATE"
	ActionSubmit  = "SUBMIT"
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

// DecisionRecord is one entry in an item's audit trail. Every status change
// appends a record; records are never updated or deleted.
type DecisionRecord struct {
	ID             int64          `json:"id"`
	ItemID         string         `json:"item_id"`
	ActorID        string         `json:"actor_id"`
	ActionType     string         `json:"action_type"`
	PreviousStatus workflow.State `json:"previous_status"`
	NewStatus      workflow.State `json:"new_status"`
	Reason         string         `json:"reason,omitempty"`
	Comments       string         `json:"comments,omitempty"`
	DecidedAt      time.Time      `json:"decided_at"`
}
