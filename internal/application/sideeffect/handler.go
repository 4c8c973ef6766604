package sideeffect

import (
	"context"

	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
)

// HandlerFunc performs the external work behind one side-effect intent. It is
// handed the entity as of execution time, which may be later than scheduling
// time when the record went through retries. Returning an error reschedules
// the record per the retry policy.
type HandlerFunc func(ctx context.Context, e *entity.Entity) error

// CompletionHook runs once all side effects of an entity's latest transition
// have completed. The travel workflow uses it to advance the entity past
// NOTIFICATIONS_PENDING without human involvement.
type CompletionHook func(ctx context.Context, e *entity.Entity)
