package workflow

import "fmt"

// NewApprovalMachine builds the canonical approval machine positioned at the
// given state. Draft items must be submitted before a decision; both decision
// outcomes are terminal.
func NewApprovalMachine(current State) (StateMachine, error) {
	if !current.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, current)
	}

	b := NewBuilder()

	b.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingApproval)

	b.Configure(StatePendingApproval).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	return b.Build(current), nil
}
