package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	appwf "github.com/ningi265/hrms-client-sub001/internal/application/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// TenderOrchestrator exposes the tender verbs, including the deadline sweep
// the scheduler runs to close lapsed tenders
type TenderOrchestrator struct {
	executor *appwf.Executor
	entities port.EntityRepository
	vendors  *VendorOrchestrator
	logger   *zap.Logger
}

// NewTenderOrchestrator creates a tender orchestrator
func NewTenderOrchestrator(executor *appwf.Executor, entities port.EntityRepository, vendors *VendorOrchestrator, logger *zap.Logger) *TenderOrchestrator {
	return &TenderOrchestrator{executor: executor, entities: entities, vendors: vendors, logger: logger}
}

// Create drafts a standalone tender
func (o *TenderOrchestrator) Create(ctx context.Context, createdBy string, p *entity.TenderPayload) (*entity.Entity, error) {
	if p.Title == "" {
		return nil, fmt.Errorf("tender title is required")
	}
	if p.Deadline.IsZero() || p.Deadline.Before(time.Now()) {
		return nil, fmt.Errorf("tender deadline must be in the future")
	}
	return o.executor.Create(ctx, domainwf.KindTender, createdBy, p)
}

// CreateFromRequisition drafts a tender sourced from an approved requisition.
// A requisition that is not APPROVED cannot be taken to market.
func (o *TenderOrchestrator) CreateFromRequisition(ctx context.Context, createdBy string, requisitionID int64, p *entity.TenderPayload) (*entity.Entity, error) {
	req, err := o.entities.GetByID(ctx, requisitionID)
	if err != nil {
		return nil, err
	}
	if req.Kind != domainwf.KindRequisition {
		return nil, fmt.Errorf("%w: entity %d is a %s, not a requisition", domainwf.ErrGuardFailed, requisitionID, req.Kind)
	}
	if req.State != domainwf.StateReqApproved {
		return nil, fmt.Errorf("%w: requisition %d is %s, not APPROVED", domainwf.ErrGuardFailed, requisitionID, req.State)
	}

	p.RequisitionID = requisitionID
	return o.Create(ctx, createdBy, p)
}

// Open publishes the tender for bidding
func (o *TenderOrchestrator) Open(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionOpenTender, actor)
}

// Close closes bidding; guarded on the deadline having passed
func (o *TenderOrchestrator) Close(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionCloseTender, actor)
}

// StartReview begins bid evaluation. From OPEN this is guarded against a
// lapsed deadline; from CLOSED it is always available.
func (o *TenderOrchestrator) StartReview(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionStartReview, actor)
}

// Award selects the winning vendor, which must hold an approved registration
func (o *TenderOrchestrator) Award(ctx context.Context, id int64, actor domainwf.Actor, vendorID string) (*entity.Entity, error) {
	if err := o.vendors.RequireApproved(ctx, vendorID); err != nil {
		return nil, err
	}
	return o.executor.Execute(ctx, id, domainwf.ActionAward, actor, func(payload any) error {
		p, ok := payload.(*entity.TenderPayload)
		if !ok {
			return fmt.Errorf("expected tender payload, got %T", payload)
		}
		p.AwardedVendorID = vendorID
		return nil
	})
}

// Cancel withdraws the tender
func (o *TenderOrchestrator) Cancel(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionCancel, actor)
}

// ListOpen returns tenders currently accepting bids
func (o *TenderOrchestrator) ListOpen(ctx context.Context, limit, offset int) ([]*entity.Entity, error) {
	return o.entities.ListByKindState(ctx, domainwf.KindTender, domainwf.StateTenderOpen, limit, offset)
}

// SweepExpired closes every OPEN tender whose deadline has lapsed, acting as
// the system scheduler. A tender that loses a concurrent race is left for the
// next sweep. Returns the number of tenders closed.
func (o *TenderOrchestrator) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	open, err := o.entities.ListByKindState(ctx, domainwf.KindTender, domainwf.StateTenderOpen, 100, 0)
	if err != nil {
		return 0, fmt.Errorf("list open tenders: %w", err)
	}

	closed := 0
	for _, t := range open {
		p, ok := t.Payload.(*entity.TenderPayload)
		if !ok || now.Before(p.Deadline) {
			continue
		}
		if _, err := o.Close(ctx, t.ID, domainwf.SystemActor); err != nil {
			o.logger.Warn("Deadline sweep could not close tender",
				zap.Int64("entity_id", t.ID),
				zap.Error(err))
			continue
		}
		closed++
		o.logger.Info("Tender closed by deadline sweep",
			zap.Int64("entity_id", t.ID),
			zap.Time("deadline", p.Deadline))
	}
	return closed, nil
}
