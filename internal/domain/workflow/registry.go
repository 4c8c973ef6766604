package workflow

import "fmt"

// Registry holds one compiled machine per entity kind
type Registry struct {
	machines map[Kind]*Machine
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{machines: make(map[Kind]*Machine)}
}

// Register adds a machine; re-registering a kind is a configuration bug
func (r *Registry) Register(m *Machine) {
	if _, exists := r.machines[m.Kind()]; exists {
		panic(fmt.Sprintf("workflow: machine for kind %s already registered", m.Kind()))
	}
	r.machines[m.Kind()] = m
}

// Machine returns the machine for a kind
func (r *Registry) Machine(kind Kind) (*Machine, error) {
	m, ok := r.machines[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return m, nil
}

// Kinds returns all registered kinds
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.machines))
	for k := range r.machines {
		kinds = append(kinds, k)
	}
	return kinds
}
