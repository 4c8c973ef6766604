package workflow

import "fmt"

// Builder assembles a Machine from fluent state configurations. Registration
// is static and happens once at process start; misconfiguration (unknown
// state, duplicate rule) panics immediately rather than surfacing at runtime.
type Builder struct {
	kind     Kind
	initial  State
	states   map[State]bool
	terminal map[State]bool
	rules    map[ruleKey]*Rule
}

// StateConfig configures transitions out of a specific state
type StateConfig struct {
	builder *Builder
	from    State
	last    *Rule
}

// NewBuilder creates a machine builder for the given kind. The state list is
// the machine's complete declared state set; terminal states are flagged
// separately and may not be used as a rule's source.
func NewBuilder(kind Kind, initial State, states []State, terminals []State) *Builder {
	if !kind.IsValid() {
		panic(fmt.Sprintf("workflow: invalid kind %q", kind))
	}

	b := &Builder{
		kind:     kind,
		initial:  initial,
		states:   make(map[State]bool, len(states)),
		terminal: make(map[State]bool, len(terminals)),
		rules:    make(map[ruleKey]*Rule),
	}

	for _, s := range states {
		b.states[s] = true
	}
	for _, s := range terminals {
		if !b.states[s] {
			panic(fmt.Sprintf("workflow: terminal state %q not in %s state set", s, kind))
		}
		b.terminal[s] = true
	}
	if !b.states[initial] {
		panic(fmt.Sprintf("workflow: initial state %q not in %s state set", initial, kind))
	}

	return b
}

// Configure returns the configuration handle for transitions out of a state
func (b *Builder) Configure(from State) *StateConfig {
	if !b.states[from] {
		panic(fmt.Sprintf("workflow: state %q not in %s state set", from, b.kind))
	}
	if b.terminal[from] {
		panic(fmt.Sprintf("workflow: terminal state %q cannot have outgoing transitions", from))
	}
	return &StateConfig{builder: b, from: from}
}

// Build finalizes the machine
func (b *Builder) Build() *Machine {
	return &Machine{
		kind:     b.kind,
		initial:  b.initial,
		states:   b.states,
		terminal: b.terminal,
		rules:    b.rules,
	}
}

// Permit registers a rule allowing the listed roles to apply the action,
// transitioning to the target state
func (c *StateConfig) Permit(action Action, to State, roles ...Role) *StateConfig {
	return c.PermitIf(action, to, nil, roles...)
}

// PermitIf registers a rule with a payload guard evaluated after the role check
func (c *StateConfig) PermitIf(action Action, to State, guard GuardFunc, roles ...Role) *StateConfig {
	b := c.builder
	if !b.states[to] {
		panic(fmt.Sprintf("workflow: target state %q not in %s state set", to, b.kind))
	}
	if len(roles) == 0 {
		panic(fmt.Sprintf("workflow: rule %s/%s has no permitted roles", c.from, action))
	}

	key := ruleKey{from: c.from, action: action}
	if _, exists := b.rules[key]; exists {
		panic(fmt.Sprintf("workflow: duplicate rule for %s/%s (%s)", c.from, action, b.kind))
	}

	rule := &Rule{
		From:   c.from,
		Action: action,
		To:     to,
		Roles:  roles,
		Guard:  guard,
	}
	b.rules[key] = rule
	c.last = rule

	return c
}

// WithEffects attaches ordered side-effect intents to the most recently
// registered rule
func (c *StateConfig) WithEffects(intents ...Intent) *StateConfig {
	if c.last == nil {
		panic("workflow: WithEffects called before any Permit")
	}
	c.last.Effects = append(c.last.Effects, intents...)
	return c
}
