package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a configured transition may be taken
type GuardFunc func(ctx context.Context) bool

// Builder accumulates transition rules and produces independent machine instances
type Builder interface {
	// Configure returns the configuration for the given source state
	Configure(state State) StateConfiguration

	// Build creates a new state machine instance starting at the given state
	Build(initialState State) StateMachine
}

// StateConfiguration declares the transitions allowed out of one state
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf allows a trigger to transition to the target state when the guard passes
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

// rule is a single permitted transition with an optional guard
type rule struct {
	toState State
	guard   GuardFunc
}

type stateConfig struct {
	fromState State
	rules     map[Trigger][]rule
}

type builder struct {
	configs map[State]*stateConfig
}

type machine struct {
	current State
	configs map[State]*stateConfig
}

// NewBuilder creates an empty state machine builder
func NewBuilder() Builder {
	return &builder{configs: make(map[State]*stateConfig)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, ok := b.configs[state]
	if !ok {
		config = &stateConfig{
			fromState: state,
			rules:     make(map[Trigger][]rule),
		}
		b.configs[state] = config
	}

	return config
}

func (b *builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// Copy rules so machines built from the same builder stay independent
	configs := make(map[State]*stateConfig, len(b.configs))
	for state, config := range b.configs {
		rules := make(map[Trigger][]rule, len(config.rules))
		for trigger, rs := range config.rules {
			rules[trigger] = append([]rule{}, rs...)
		}
		configs[state] = &stateConfig{fromState: state, rules: rules}
	}

	return &machine{current: initialState, configs: configs}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.rules[trigger] = append(c.rules[trigger], rule{toState: toState, guard: guard})
	return c
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	config, ok := m.configs[m.current]
	if !ok {
		return false
	}
	// Guards need a context to evaluate; any configured rule counts here
	return len(config.rules[trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	config, ok := m.configs[m.current]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	rules := config.rules[trigger]
	if len(rules) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	// First rule whose guard passes wins
	for _, r := range rules {
		if r.guard == nil || r.guard(ctx) {
			m.current = r.toState
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from %s", ErrGuardFailed, trigger, m.current)
}

func (m *machine) PermittedTriggers() []Trigger {
	config, ok := m.configs[m.current]
	if !ok {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.rules))
	for trigger := range config.rules {
		triggers = append(triggers, trigger)
	}
	return triggers
}
