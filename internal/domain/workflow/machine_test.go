package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePendingApproval, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"rejected", StateRejected, true},
		{"unknown state", State("ARCHIVED"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	b := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	b.Configure(State("ARCHIVED"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	b := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	b.Build(State(""))
}

func TestStateConfiguration_Permit(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingApproval)

	m := b.Build(StateDraft)

	if !m.CanFire(TriggerSubmit) {
		t.Error("CanFire() should return true for permitted trigger")
	}

	if err := m.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if m.State() != StatePendingApproval {
		t.Errorf("State after Fire() = %v, want %v", m.State(), StatePendingApproval)
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	b := NewBuilder()
	b.Configure(StatePendingApproval).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool {
			return false
		})

	m := b.Build(StatePendingApproval)

	err := m.Fire(context.Background(), TriggerApprove)
	if err == nil {
		t.Fatal("Fire() should fail when guard fails")
	}

	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}

	if m.State() != StatePendingApproval {
		t.Errorf("State should remain %v after failed Fire(), got %v", StatePendingApproval, m.State())
	}
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingApproval)

	m := b.Build(StateDraft)

	err := m.Fire(context.Background(), TriggerApprove)
	if err == nil {
		t.Fatal("Fire() should fail for invalid transition")
	}

	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}

	if m.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, m.State())
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingApproval)

	m1 := b.Build(StateDraft)
	m2 := b.Build(StateDraft)

	if err := m1.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if m2.State() != StateDraft {
		t.Errorf("m2 state = %v, want %v (machines should be independent)", m2.State(), StateDraft)
	}
}

func TestNewApprovalMachine(t *testing.T) {
	tests := []struct {
		name      string
		start     State
		trigger   Trigger
		wantState State
		wantErr   error
	}{
		{"submit draft", StateDraft, TriggerSubmit, StatePendingApproval, nil},
		{"approve pending", StatePendingApproval, TriggerApprove, StateApproved, nil},
		{"reject pending", StatePendingApproval, TriggerReject, StateRejected, nil},
		{"approve draft", StateDraft, TriggerApprove, StateDraft, ErrInvalidTransition},
		{"submit pending", StatePendingApproval, TriggerSubmit, StatePendingApproval, ErrInvalidTransition},
		{"approve approved", StateApproved, TriggerApprove, StateApproved, ErrInvalidTransition},
		{"reject rejected", StateRejected, TriggerReject, StateRejected, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewApprovalMachine(tt.start)
			if err != nil {
				t.Fatalf("NewApprovalMachine() failed: %v", err)
			}

			err = m.Fire(context.Background(), tt.trigger)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fire() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Fire() failed: %v", err)
			}

			if m.State() != tt.wantState {
				t.Errorf("State = %v, want %v", m.State(), tt.wantState)
			}
		})
	}
}

func TestNewApprovalMachine_InvalidState(t *testing.T) {
	_, err := NewApprovalMachine(State("ARCHIVED"))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("NewApprovalMachine() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	m, err := NewApprovalMachine(StatePendingApproval)
	if err != nil {
		t.Fatalf("NewApprovalMachine() failed: %v", err)
	}

	triggers := m.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}

	hasApprove := false
	hasReject := false
	for _, trigger := range triggers {
		if trigger == TriggerApprove {
			hasApprove = true
		}
		if trigger == TriggerReject {
			hasReject = true
		}
	}

	if !hasApprove || !hasReject {
		t.Errorf("PermittedTriggers() = %v, want approve and reject", triggers)
	}
}

func TestStateMachine_PermittedTriggers_TerminalState(t *testing.T) {
	m, err := NewApprovalMachine(StateApproved)
	if err != nil {
		t.Fatalf("NewApprovalMachine() failed: %v", err)
	}

	if triggers := m.PermittedTriggers(); len(triggers) != 0 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 0", len(triggers))
	}
}
