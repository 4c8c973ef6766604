package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates a transition precondition against the entity's payload.
// A nil return permits the transition; a typed error (ErrGuardFailed,
// ErrExpiredDeadline, or a wrap of either) blocks it. Guards must not mutate
// the payload.
type GuardFunc func(ctx context.Context, payload any) error

// Rule is one entry in a machine's transition table: what a given action does
// from a given state, who may request it, under which precondition, and which
// side effects it schedules after commit.
type Rule struct {
	From    State
	Action  Action
	To      State
	Roles   []Role
	Guard   GuardFunc
	Effects []Intent
}

// Allows returns true if the role is in the rule's permitted-role set
func (r *Rule) Allows(role Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

type ruleKey struct {
	from   State
	action Action
}

// Machine is the immutable, compiled transition table for one entity kind.
// Build it once with a Builder at process start and share it freely; per-entity
// state lives in the store, never in the machine.
type Machine struct {
	kind     Kind
	initial  State
	states   map[State]bool
	terminal map[State]bool
	rules    map[ruleKey]*Rule
}

// Kind returns the entity kind this machine governs
func (m *Machine) Kind() Kind {
	return m.kind
}

// Initial returns the state assigned to newly created entities
func (m *Machine) Initial() State {
	return m.initial
}

// HasState returns true if the state is a member of the machine's declared state set
func (m *Machine) HasState(s State) bool {
	return m.states[s]
}

// IsTerminal returns true if the state admits no further transitions
func (m *Machine) IsTerminal(s State) bool {
	return m.terminal[s]
}

// Resolve looks up the rule for (from, action). A missing rule is an
// ErrInvalidTransition, never a silent no-op.
func (m *Machine) Resolve(from State, action Action) (*Rule, error) {
	if !m.states[from] {
		return nil, fmt.Errorf("%w: %s is not a %s state", ErrInvalidState, from, m.kind)
	}
	rule, ok := m.rules[ruleKey{from: from, action: action}]
	if !ok {
		return nil, fmt.Errorf("%w: action %s from state %s (%s)", ErrInvalidTransition, action, from, m.kind)
	}
	return rule, nil
}

// RuleFor returns the rule that an action applies from any source state whose
// target equals the given state. Used for idempotent duplicate detection: a
// repeated request whose target is already the current state is not an error.
func (m *Machine) RuleFor(action Action, target State) *Rule {
	for _, rule := range m.rules {
		if rule.Action == action && rule.To == target {
			return rule
		}
	}
	return nil
}

// PermittedActions returns all actions with a registered rule from the state
func (m *Machine) PermittedActions(from State) []Action {
	var actions []Action
	for key := range m.rules {
		if key.from == from {
			actions = append(actions, key.action)
		}
	}
	return actions
}
