package sideeffect

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	eventdisp "github.com/ningi265/hrms-client-sub001/internal/application/dispatcher"
	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	"github.com/ningi265/hrms-client-sub001/internal/domain/event"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// Dispatcher executes side-effect intents scheduled by committed transitions.
// Every intent gets a persisted record before anything runs, so a crash
// between commit and execution is recovered by the retry worker rather than
// silently lost. Handler failures never touch the entity's workflow state.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[domainwf.Intent]HandlerFunc
	hooks    map[domainwf.Kind]CompletionHook

	records  port.SideEffectRepository
	entities port.EntityRepository
	policy   RetryPolicy
	events   eventdisp.Dispatcher
	logger   *zap.Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewDispatcher creates a side-effect dispatcher
func NewDispatcher(
	records port.SideEffectRepository,
	entities port.EntityRepository,
	policy RetryPolicy,
	events eventdisp.Dispatcher,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[domainwf.Intent]HandlerFunc),
		hooks:    make(map[domainwf.Kind]CompletionHook),
		records:  records,
		entities: entities,
		policy:   policy,
		events:   events,
		logger:   logger,
	}
}

// Register binds a handler to an intent. Re-binding an intent is a wiring bug.
func (d *Dispatcher) Register(intent domainwf.Intent, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[intent]; exists {
		panic(fmt.Sprintf("sideeffect: handler for intent %s already registered", intent))
	}
	d.handlers[intent] = handler
}

// RegisterCompletionHook binds a hook invoked when the last outstanding side
// effect of an entity of the given kind completes
func (d *Dispatcher) RegisterCompletionHook(kind domainwf.Kind, hook CompletionHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.hooks[kind]; exists {
		panic(fmt.Sprintf("sideeffect: completion hook for kind %s already registered", kind))
	}
	d.hooks[kind] = hook
}

// Schedule persists one pending record per intent and kicks off execution in
// the background. Record creation failures are logged, not propagated: the
// transition has already committed and must stand.
func (d *Dispatcher) Schedule(ctx context.Context, e *entity.Entity, intents []domainwf.Intent) {
	now := time.Now()
	for _, intent := range intents {
		rec := &entity.SideEffectRecord{
			ID:       uuid.NewString(),
			EntityID: e.ID,
			Intent:   intent.String(),
			Status:   entity.SideEffectStatusPending,
			Attempts: 0,
			// The inline run below owns the row until NextAttemptAt; the retry
			// sweep only sees rows past that time, so it cannot execute the
			// same record while the first attempt is in flight.
			NextAttemptAt: now.Add(d.policy.NextDelay(1)),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := d.records.Create(ctx, rec); err != nil {
			d.logger.Error("Failed to persist side-effect record",
				zap.Int64("entity_id", e.ID),
				zap.String("intent", intent.String()),
				zap.Error(err))
			continue
		}
		d.runAsync(rec)
	}
}

// ProcessDue executes all pending records whose next attempt time has passed.
// Called periodically by the retry worker; also the crash-recovery path for
// records scheduled by a previous process.
func (d *Dispatcher) ProcessDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := d.records.GetDue(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("list due side effects: %w", err)
	}

	for _, rec := range due {
		d.process(ctx, rec)
	}
	return len(due), nil
}

// Close waits for in-flight background executions to finish
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("side-effect dispatcher already closed")
	}
	d.wg.Wait()
	d.logger.Info("Side-effect dispatcher closed")
	return nil
}

func (d *Dispatcher) runAsync(rec *entity.SideEffectRecord) {
	if d.closed.Load() {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		d.process(ctx, rec)
	}()
}

// process runs one record to a terminal bookkeeping outcome: completed,
// discarded, rescheduled, or failed for good
func (d *Dispatcher) process(ctx context.Context, rec *entity.SideEffectRecord) {
	e, err := d.entities.GetByID(ctx, rec.EntityID)
	if err != nil {
		d.fail(ctx, rec, nil, fmt.Errorf("load entity %d: %w", rec.EntityID, err))
		return
	}

	// A retried effect whose entity has since been cancelled or rejected is
	// stale and must not fire.
	if isDeadState(e.State) {
		reason := fmt.Sprintf("entity reached %s before effect ran", e.State)
		if err := d.records.MarkDiscarded(ctx, rec.ID, reason); err != nil {
			d.logger.Error("Failed to discard stale side effect",
				zap.String("record_id", rec.ID), zap.Error(err))
			return
		}
		d.logger.Info("Stale side effect discarded",
			zap.String("record_id", rec.ID),
			zap.Int64("entity_id", rec.EntityID),
			zap.String("intent", rec.Intent),
			zap.String("entity_state", e.State.String()))
		return
	}

	d.mu.RLock()
	handler, ok := d.handlers[domainwf.Intent(rec.Intent)]
	d.mu.RUnlock()
	if !ok {
		if err := d.records.MarkDiscarded(ctx, rec.ID, "no handler registered"); err != nil {
			d.logger.Error("Failed to discard unhandled side effect",
				zap.String("record_id", rec.ID), zap.Error(err))
		}
		d.logger.Warn("No handler for side-effect intent",
			zap.String("intent", rec.Intent),
			zap.String("record_id", rec.ID))
		return
	}

	if err := d.execute(ctx, handler, e); err != nil {
		d.fail(ctx, rec, e, err)
		return
	}

	if err := d.records.MarkCompleted(ctx, rec.ID); err != nil {
		d.logger.Error("Failed to mark side effect completed",
			zap.String("record_id", rec.ID), zap.Error(err))
		return
	}

	d.logger.Info("Side effect completed",
		zap.String("record_id", rec.ID),
		zap.Int64("entity_id", rec.EntityID),
		zap.String("intent", rec.Intent),
		zap.Int("attempts", rec.Attempts+1))

	d.events.DispatchAsync(ctx, event.New(event.TypeSideEffectCompleted, e.Kind, e.ID, map[string]any{
		"record_id": rec.ID,
		"intent":    rec.Intent,
	}))

	d.checkCompletion(ctx, e)
}

// execute runs the handler with panic recovery so one misbehaving
// collaborator cannot take the dispatcher down
func (d *Dispatcher) execute(ctx context.Context, handler HandlerFunc, e *entity.Entity) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("side-effect handler panic: %v", r)
		}
	}()
	return handler(ctx, e)
}

func (d *Dispatcher) fail(ctx context.Context, rec *entity.SideEffectRecord, e *entity.Entity, cause error) {
	attempts := rec.Attempts + 1
	exhausted := d.policy.Exhausted(attempts)
	nextAt := time.Now().Add(d.policy.NextDelay(attempts))

	if err := d.records.RecordFailure(ctx, rec.ID, attempts, cause.Error(), nextAt, exhausted); err != nil {
		d.logger.Error("Failed to record side-effect failure",
			zap.String("record_id", rec.ID), zap.Error(err))
		return
	}

	if exhausted {
		d.logger.Error("Side effect failed permanently",
			zap.String("record_id", rec.ID),
			zap.Int64("entity_id", rec.EntityID),
			zap.String("intent", rec.Intent),
			zap.Int("attempts", attempts),
			zap.Error(cause))
		if e != nil {
			d.events.DispatchAsync(ctx, event.New(event.TypeSideEffectFailed, e.Kind, e.ID, map[string]any{
				"record_id": rec.ID,
				"intent":    rec.Intent,
				"error":     cause.Error(),
			}))
		}
		return
	}

	d.logger.Warn("Side effect failed, will retry",
		zap.String("record_id", rec.ID),
		zap.Int64("entity_id", rec.EntityID),
		zap.String("intent", rec.Intent),
		zap.Int("attempts", attempts),
		zap.Time("next_attempt_at", nextAt),
		zap.Error(cause))
}

// checkCompletion fires the kind's completion hook once no pending or
// retrying records remain for the entity
func (d *Dispatcher) checkCompletion(ctx context.Context, e *entity.Entity) {
	d.mu.RLock()
	hook, ok := d.hooks[e.Kind]
	d.mu.RUnlock()
	if !ok {
		return
	}

	remaining, err := d.records.CountIncompleteByEntity(ctx, e.ID)
	if err != nil {
		d.logger.Error("Failed to count outstanding side effects",
			zap.Int64("entity_id", e.ID), zap.Error(err))
		return
	}
	if remaining == 0 {
		hook(ctx, e)
	}
}

// isDeadState reports whether the state is a cancellation or rejection, in
// which case queued effects for the entity must not run
func isDeadState(s domainwf.State) bool {
	return s == "CANCELLED" || s == "REJECTED"
}
