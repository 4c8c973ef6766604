package event

// Type identifies the type of domain event
type Type string

const (
	TypeEntityCreated       Type = "entity.created"
	TypeTransitionCommitted Type = "transition.committed"
	TypeSideEffectCompleted Type = "sideeffect.completed"
	TypeSideEffectFailed    Type = "sideeffect.failed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeEntityCreated,
		TypeTransitionCommitted,
		TypeSideEffectCompleted,
		TypeSideEffectFailed:
		return true
	default:
		return false
	}
}
