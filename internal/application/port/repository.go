package port

import (
	"context"
	"time"

	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	"github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// EntityRepository defines persistence operations for workflow entities.
// State changes go exclusively through CompareAndSwapState so that two racing
// transitions on the same entity cannot both win.
type EntityRepository interface {
	Create(ctx context.Context, e *entity.Entity) error
	GetByID(ctx context.Context, id int64) (*entity.Entity, error)

	// CompareAndSwapState persists the entity's new state and payload only if
	// the stored state still equals expected. Returns false when the swap lost
	// a race; the caller maps that to ErrConcurrentModification.
	CompareAndSwapState(ctx context.Context, id int64, expected workflow.State, e *entity.Entity) (bool, error)

	// UpdatePayload persists payload changes without touching state. Used by
	// side-effect bookkeeping that annotates payloads after dispatch.
	UpdatePayload(ctx context.Context, e *entity.Entity) error

	ListByKindState(ctx context.Context, kind workflow.Kind, state workflow.State, limit, offset int) ([]*entity.Entity, error)
	ListByKind(ctx context.Context, kind workflow.Kind, limit, offset int) ([]*entity.Entity, error)
}

// HistoryRepository defines persistence operations for the append-only
// transition history
type HistoryRepository interface {
	Append(ctx context.Context, rec *entity.TransitionRecord) error
	GetByEntityID(ctx context.Context, entityID int64) ([]*entity.TransitionRecord, error)
	GetLatest(ctx context.Context, entityID int64) (*entity.TransitionRecord, error)
}

// SideEffectRepository defines persistence operations for side-effect outcome
// tracking
type SideEffectRepository interface {
	Create(ctx context.Context, rec *entity.SideEffectRecord) error
	GetByID(ctx context.Context, id string) (*entity.SideEffectRecord, error)
	GetByEntityID(ctx context.Context, entityID int64) ([]*entity.SideEffectRecord, error)

	// GetDue returns pending records whose next_attempt_at has passed
	GetDue(ctx context.Context, now time.Time, limit int) ([]*entity.SideEffectRecord, error)

	MarkCompleted(ctx context.Context, id string) error
	MarkDiscarded(ctx context.Context, id string, reason string) error
	RecordFailure(ctx context.Context, id string, attempts int, lastError string, nextAttemptAt time.Time, exhausted bool) error

	// CountIncompleteByEntity returns how many records for the entity are
	// still pending or retrying
	CountIncompleteByEntity(ctx context.Context, entityID int64) (int, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
