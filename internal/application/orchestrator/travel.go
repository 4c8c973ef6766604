package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	"github.com/ningi265/hrms-client-sub001/internal/application/sideeffect"
	appwf "github.com/ningi265/hrms-client-sub001/internal/application/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// TravelOrchestrator exposes the travel request verbs. The driver and flight
// requirement flags are derived once here, at creation, so every later guard
// decision works from stable payload fields.
type TravelOrchestrator struct {
	executor *appwf.Executor
	entities port.EntityRepository
	logger   *zap.Logger
}

// NewTravelOrchestrator creates a travel request orchestrator
func NewTravelOrchestrator(executor *appwf.Executor, entities port.EntityRepository, logger *zap.Logger) *TravelOrchestrator {
	return &TravelOrchestrator{executor: executor, entities: entities, logger: logger}
}

// Create submits a new travel request. Ground or mixed travel requires a
// driver; air or mixed travel, and any international trip, requires a flight.
func (o *TravelOrchestrator) Create(ctx context.Context, createdBy string, p *entity.TravelRequestPayload) (*entity.Entity, error) {
	if p.Purpose == "" {
		return nil, fmt.Errorf("travel purpose is required")
	}
	if p.Destination == "" {
		return nil, fmt.Errorf("travel destination is required")
	}
	if !p.ReturnDate.IsZero() && p.ReturnDate.Before(p.DepartDate) {
		return nil, fmt.Errorf("return date %s precedes departure %s",
			p.ReturnDate.Format("2006-01-02"), p.DepartDate.Format("2006-01-02"))
	}

	switch p.MeansOfTravel {
	case entity.TravelMeansGround:
		p.RequiresDriver = true
		p.RequiresFlight = p.International
	case entity.TravelMeansAir:
		p.RequiresDriver = false
		p.RequiresFlight = true
	case entity.TravelMeansMixed:
		p.RequiresDriver = true
		p.RequiresFlight = true
	default:
		return nil, fmt.Errorf("unknown means of travel %q", p.MeansOfTravel)
	}

	return o.executor.Create(ctx, domainwf.KindTravelRequest, createdBy, p)
}

// SupervisorApprove records the first-line approval
func (o *TravelOrchestrator) SupervisorApprove(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionSupervisorApprove, actor)
}

// SupervisorReject declines the request at first-line review
func (o *TravelOrchestrator) SupervisorReject(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionSupervisorReject, actor)
}

// FinalApprove records the second-line approval
func (o *TravelOrchestrator) FinalApprove(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionFinalApprove, actor)
}

// FinalReject declines the request at second-line review
func (o *TravelOrchestrator) FinalReject(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionFinalReject, actor)
}

// SubmitToFinance hands the approved request to finance for funds clearance
func (o *TravelOrchestrator) SubmitToFinance(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionSubmitToFinance, actor)
}

// FinanceClear confirms funds for the trip
func (o *TravelOrchestrator) FinanceClear(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionFinanceClear, actor)
}

// RequestDriver opens the driver assignment branch
func (o *TravelOrchestrator) RequestDriver(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionRequestDriver, actor)
}

// AssignDriver records the assigned driver on the request
func (o *TravelOrchestrator) AssignDriver(ctx context.Context, id int64, actor domainwf.Actor, driverID string) (*entity.Entity, error) {
	if driverID == "" {
		return nil, fmt.Errorf("driver ID is required")
	}
	p, err := o.requestPayload(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.RequiresDriver {
		return nil, fmt.Errorf("%w: travel request does not require a driver", domainwf.ErrGuardFailed)
	}
	return o.executor.Execute(ctx, id, domainwf.ActionAssignDriver, actor, func(payload any) error {
		p, ok := payload.(*entity.TravelRequestPayload)
		if !ok {
			return fmt.Errorf("expected travel request payload, got %T", payload)
		}
		p.AssignedDriverID = driverID
		return nil
	})
}

// RequestFlight opens the flight booking branch
func (o *TravelOrchestrator) RequestFlight(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionRequestFlight, actor)
}

// BookFlight records the booked flight reference on the request
func (o *TravelOrchestrator) BookFlight(ctx context.Context, id int64, actor domainwf.Actor, flightRef string) (*entity.Entity, error) {
	if flightRef == "" {
		return nil, fmt.Errorf("flight reference is required")
	}
	p, err := o.requestPayload(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.RequiresFlight {
		return nil, fmt.Errorf("%w: travel request does not require a flight", domainwf.ErrGuardFailed)
	}
	return o.executor.Execute(ctx, id, domainwf.ActionBookFlight, actor, func(payload any) error {
		p, ok := payload.(*entity.TravelRequestPayload)
		if !ok {
			return fmt.Errorf("expected travel request payload, got %T", payload)
		}
		p.FlightReference = flightRef
		return nil
	})
}

// BeginNotifications starts the fan-out of itinerary and notifications once
// every required resource is in place
func (o *TravelOrchestrator) BeginNotifications(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionBeginNotifications, actor)
}

// Complete closes out the request after the notification fan-out. Usually
// invoked by the completion hook, but available to the fleet coordinator for
// manual recovery.
func (o *TravelOrchestrator) Complete(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionComplete, actor)
}

// Cancel lets the employee withdraw the request before fulfilment begins
func (o *TravelOrchestrator) Cancel(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionCancel, actor)
}

// requestPayload loads the travel payload for requirement checks that must
// hold from every state, not only where a machine rule exists
func (o *TravelOrchestrator) requestPayload(ctx context.Context, id int64) (*entity.TravelRequestPayload, error) {
	e, err := o.entities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, ok := e.Payload.(*entity.TravelRequestPayload)
	if !ok {
		return nil, fmt.Errorf("entity %d is not a travel request", id)
	}
	return p, nil
}

// ListByState returns travel requests currently in the given state
func (o *TravelOrchestrator) ListByState(ctx context.Context, state domainwf.State, limit, offset int) ([]*entity.Entity, error) {
	return o.entities.ListByKindState(ctx, domainwf.KindTravelRequest, state, limit, offset)
}

// CompletionHook returns the side-effect completion hook that advances a
// travel request out of NOTIFICATIONS_PENDING once its notification fan-out
// has fully completed
func (o *TravelOrchestrator) CompletionHook() sideeffect.CompletionHook {
	return func(ctx context.Context, e *entity.Entity) {
		if e.State != domainwf.StateTravelNotificationsPending {
			return
		}
		if _, err := o.Complete(ctx, e.ID, domainwf.SystemActor); err != nil {
			o.logger.Error("Failed to auto-complete travel request",
				zap.Int64("entity_id", e.ID),
				zap.Error(err))
		}
	}
}
