package entity

import (
	"time"

	"github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// Entity is one instance of a workflow-tracked business object. The state
// field is mutated only through the transition executor; everything else the
// engine needs at transition time lives in the kind-specific payload.
type Entity struct {
	ID        int64          `json:"id"`
	Kind      workflow.Kind  `json:"kind"`
	State     workflow.State `json:"state"`
	CreatedBy string         `json:"created_by"`
	Payload   any            `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TransitionRecord is one entry in an entity's append-only actor history.
// Replaying the records in order reconstructs the current state from the
// machine's initial state.
type TransitionRecord struct {
	ID        int64     `json:"id"`
	EntityID  int64     `json:"entity_id"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Action    string    `json:"action"`
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	Timestamp time.Time `json:"timestamp"`
}

// SideEffectRecord tracks the outcome of one scheduled side-effect intent.
// It is deliberately separate from Entity.State: a failed notification must
// never corrupt the workflow state.
type SideEffectRecord struct {
	ID            string     `json:"id"`
	EntityID      int64      `json:"entity_id"`
	Intent        string     `json:"intent"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastError     string     `json:"last_error,omitempty"`
	NextAttemptAt time.Time  `json:"next_attempt_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
