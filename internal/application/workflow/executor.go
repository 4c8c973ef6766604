package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/dispatcher"
	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	"github.com/ningi265/hrms-client-sub001/internal/domain/event"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// PayloadMutation adjusts the entity payload inside the same commit as the
// state change. Orchestrators use it for data the action carries, such as the
// assigned driver ID or the booked flight reference.
type PayloadMutation func(payload any) error

// EffectScheduler receives the side-effect intents of a committed transition.
// Scheduling happens after the commit succeeds; a scheduler failure must not
// unwind the transition.
type EffectScheduler interface {
	Schedule(ctx context.Context, e *entity.Entity, intents []domainwf.Intent)
}

// Executor drives entity state transitions: it resolves the rule for the
// requested action, enforces role and guard checks, and commits the state
// change and history record in one transaction guarded by an optimistic
// state check.
type Executor struct {
	registry *domainwf.Registry
	entities port.EntityRepository
	history  port.HistoryRepository
	txMgr    port.TransactionManager
	effects  EffectScheduler
	events   dispatcher.Dispatcher
	logger   *zap.Logger
}

// NewExecutor creates a transition executor
func NewExecutor(
	registry *domainwf.Registry,
	entities port.EntityRepository,
	history port.HistoryRepository,
	txMgr port.TransactionManager,
	effects EffectScheduler,
	events dispatcher.Dispatcher,
	logger *zap.Logger,
) *Executor {
	return &Executor{
		registry: registry,
		entities: entities,
		history:  history,
		txMgr:    txMgr,
		effects:  effects,
		events:   events,
		logger:   logger,
	}
}

// Create persists a new entity in its machine's initial state and records the
// creation in the history so replay always starts from a known point.
func (x *Executor) Create(ctx context.Context, kind domainwf.Kind, createdBy string, payload any) (*entity.Entity, error) {
	machine, err := x.registry.Machine(kind)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	e := &entity.Entity{
		Kind:      kind,
		State:     machine.Initial(),
		CreatedBy: createdBy,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = x.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := x.entities.Create(txCtx, e); err != nil {
			return fmt.Errorf("create %s: %w", kind, err)
		}
		return x.history.Append(txCtx, &entity.TransitionRecord{
			EntityID:  e.ID,
			ActorID:   createdBy,
			ActorRole: string(domainwf.RoleEmployee),
			Action:    "CREATE",
			FromState: "",
			ToState:   string(e.State),
			Timestamp: now,
		})
	})
	if err != nil {
		return nil, err
	}

	x.logger.Info("Entity created",
		zap.String("kind", string(kind)),
		zap.Int64("entity_id", e.ID),
		zap.String("state", string(e.State)))

	x.events.DispatchAsync(ctx, event.New(event.TypeEntityCreated, kind, e.ID, map[string]any{
		"state":      string(e.State),
		"created_by": createdBy,
	}))

	return e, nil
}

// Execute applies an action to the entity on behalf of the actor. On success
// it returns the entity in its new state with any payload mutations applied.
//
// A repeated request that would re-apply a transition the same actor already
// committed returns the current entity without error, so retried HTTP calls
// and redelivered messages stay harmless.
func (x *Executor) Execute(ctx context.Context, entityID int64, action domainwf.Action, actor domainwf.Actor, mutations ...PayloadMutation) (*entity.Entity, error) {
	e, err := x.entities.GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}

	machine, err := x.registry.Machine(e.Kind)
	if err != nil {
		return nil, err
	}

	rule, err := machine.Resolve(e.State, action)
	if err != nil {
		if errors.Is(err, domainwf.ErrInvalidTransition) {
			if dup, dupErr := x.isDuplicate(ctx, machine, e, action, actor); dupErr == nil && dup {
				x.logger.Debug("Duplicate transition request ignored",
					zap.Int64("entity_id", e.ID),
					zap.String("action", string(action)),
					zap.String("actor_id", actor.ID))
				return e, nil
			}
		}
		return nil, err
	}

	if !rule.Allows(actor.Role) {
		return nil, fmt.Errorf("%w: role %s may not perform %s on %s",
			domainwf.ErrUnauthorized, actor.Role, action, e.Kind)
	}

	if rule.Guard != nil {
		if err := rule.Guard(ctx, e.Payload); err != nil {
			return nil, err
		}
	}

	for _, mutate := range mutations {
		if err := mutate(e.Payload); err != nil {
			return nil, fmt.Errorf("apply payload mutation: %w", err)
		}
	}

	fromState := e.State
	now := time.Now()
	e.State = rule.To
	e.UpdatedAt = now

	err = x.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := x.history.Append(txCtx, &entity.TransitionRecord{
			EntityID:  e.ID,
			ActorID:   actor.ID,
			ActorRole: string(actor.Role),
			Action:    string(action),
			FromState: string(fromState),
			ToState:   string(rule.To),
			Timestamp: now,
		}); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		swapped, err := x.entities.CompareAndSwapState(txCtx, e.ID, fromState, e)
		if err != nil {
			return fmt.Errorf("swap state: %w", err)
		}
		if !swapped {
			return fmt.Errorf("%w: entity %d changed state during %s",
				domainwf.ErrConcurrentModification, e.ID, action)
		}
		return nil
	})
	if err != nil {
		e.State = fromState
		return nil, err
	}

	x.logger.Info("Transition committed",
		zap.String("kind", string(e.Kind)),
		zap.Int64("entity_id", e.ID),
		zap.String("action", string(action)),
		zap.String("from", string(fromState)),
		zap.String("to", string(rule.To)),
		zap.String("actor_id", actor.ID),
		zap.String("actor_role", string(actor.Role)))

	if len(rule.Effects) > 0 && x.effects != nil {
		x.effects.Schedule(ctx, e, rule.Effects)
	}

	x.events.DispatchAsync(ctx, event.New(event.TypeTransitionCommitted, e.Kind, e.ID, map[string]any{
		"action":     string(action),
		"from_state": string(fromState),
		"to_state":   string(rule.To),
		"actor_id":   actor.ID,
		"actor_role": string(actor.Role),
	}))

	return e, nil
}

// Get loads an entity by ID
func (x *Executor) Get(ctx context.Context, entityID int64) (*entity.Entity, error) {
	return x.entities.GetByID(ctx, entityID)
}

// History returns the entity's transition records in commit order
func (x *Executor) History(ctx context.Context, entityID int64) ([]*entity.TransitionRecord, error) {
	return x.history.GetByEntityID(ctx, entityID)
}

// Replay folds the entity's history over the machine's initial state and
// returns the reconstructed current state. Used by the consistency check
// endpoint to detect drift between the entity row and its history.
func (x *Executor) Replay(ctx context.Context, entityID int64) (domainwf.State, error) {
	e, err := x.entities.GetByID(ctx, entityID)
	if err != nil {
		return "", err
	}
	machine, err := x.registry.Machine(e.Kind)
	if err != nil {
		return "", err
	}

	records, err := x.history.GetByEntityID(ctx, entityID)
	if err != nil {
		return "", err
	}

	state := machine.Initial()
	for _, rec := range records {
		if rec.Action == "CREATE" {
			continue
		}
		if rec.FromState != string(state) {
			return "", fmt.Errorf("history record %d departs from %s but replay is at %s",
				rec.ID, rec.FromState, state)
		}
		state = domainwf.State(rec.ToState)
	}
	return state, nil
}

// isDuplicate reports whether the invalid transition is actually a repeat of
// the last committed one: same action, same actor, and the current state is
// exactly the state that action produces.
func (x *Executor) isDuplicate(ctx context.Context, machine *domainwf.Machine, e *entity.Entity, action domainwf.Action, actor domainwf.Actor) (bool, error) {
	rule := machine.RuleFor(action, e.State)
	if rule == nil {
		return false, nil
	}

	last, err := x.history.GetLatest(ctx, e.ID)
	if err != nil || last == nil {
		return false, err
	}

	return last.Action == string(action) &&
		last.ActorID == actor.ID &&
		last.ToState == string(e.State), nil
}
