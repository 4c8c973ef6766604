package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	appwf "github.com/ningi265/hrms-client-sub001/internal/application/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// PurchaseOrderOrchestrator exposes the purchase order verbs. Issuing a PO
// generates the order form document immediately; delivery confirmation runs
// through the DELIVERED/CONFIRMED handshake between vendor and requester.
type PurchaseOrderOrchestrator struct {
	executor *appwf.Executor
	entities port.EntityRepository
	vendors  *VendorOrchestrator
	effects  appwf.EffectScheduler
}

// NewPurchaseOrderOrchestrator creates a purchase order orchestrator
func NewPurchaseOrderOrchestrator(executor *appwf.Executor, entities port.EntityRepository, vendors *VendorOrchestrator, effects appwf.EffectScheduler) *PurchaseOrderOrchestrator {
	return &PurchaseOrderOrchestrator{executor: executor, entities: entities, vendors: vendors, effects: effects}
}

// Issue creates a purchase order to an approved vendor and schedules
// generation of the PO form
func (o *PurchaseOrderOrchestrator) Issue(ctx context.Context, createdBy string, p *entity.PurchaseOrderPayload) (*entity.Entity, error) {
	if p.AmountCents <= 0 {
		return nil, fmt.Errorf("purchase order amount must be positive")
	}
	if p.DeliveryAddress == "" {
		return nil, fmt.Errorf("delivery address is required")
	}
	if err := o.vendors.RequireApproved(ctx, p.VendorID); err != nil {
		return nil, err
	}

	e, err := o.executor.Create(ctx, domainwf.KindPurchaseOrder, createdBy, p)
	if err != nil {
		return nil, err
	}

	if o.effects != nil {
		o.effects.Schedule(ctx, e, []domainwf.Intent{domainwf.IntentGeneratePOForm, domainwf.IntentNotifyVendor})
	}
	return e, nil
}

// IssueFromTender creates a purchase order for the winning bid of an awarded
// tender
func (o *PurchaseOrderOrchestrator) IssueFromTender(ctx context.Context, createdBy string, tenderID int64, p *entity.PurchaseOrderPayload) (*entity.Entity, error) {
	t, err := o.entities.GetByID(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if t.Kind != domainwf.KindTender {
		return nil, fmt.Errorf("%w: entity %d is a %s, not a tender", domainwf.ErrGuardFailed, tenderID, t.Kind)
	}
	if t.State != domainwf.StateTenderAwarded {
		return nil, fmt.Errorf("%w: tender %d is %s, not AWARDED", domainwf.ErrGuardFailed, tenderID, t.State)
	}

	tp, ok := t.Payload.(*entity.TenderPayload)
	if !ok {
		return nil, fmt.Errorf("expected tender payload, got %T", t.Payload)
	}
	p.RequisitionID = tp.RequisitionID
	p.VendorID = tp.AwardedVendorID
	return o.Issue(ctx, createdBy, p)
}

// MarkDelivered records the vendor's delivery claim with a timestamp
func (o *PurchaseOrderOrchestrator) MarkDelivered(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	deliveredAt := time.Now()
	return o.executor.Execute(ctx, id, domainwf.ActionMarkDelivered, actor, func(payload any) error {
		p, ok := payload.(*entity.PurchaseOrderPayload)
		if !ok {
			return fmt.Errorf("expected purchase order payload, got %T", payload)
		}
		p.DeliveredAt = &deliveredAt
		return nil
	})
}

// ConfirmDelivery records the requester's acceptance with the
// proof-of-delivery reference
func (o *PurchaseOrderOrchestrator) ConfirmDelivery(ctx context.Context, id int64, actor domainwf.Actor, proofOfDelivery string) (*entity.Entity, error) {
	if proofOfDelivery == "" {
		return nil, fmt.Errorf("proof of delivery reference is required")
	}
	return o.executor.Execute(ctx, id, domainwf.ActionConfirmDelivery, actor, func(payload any) error {
		p, ok := payload.(*entity.PurchaseOrderPayload)
		if !ok {
			return fmt.Errorf("expected purchase order payload, got %T", payload)
		}
		p.ProofOfDelivery = proofOfDelivery
		p.ReceivedBy = actor.ID
		return nil
	})
}

// Cancel withdraws an issued purchase order
func (o *PurchaseOrderOrchestrator) Cancel(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionCancel, actor)
}

// ListByState returns purchase orders currently in the given state
func (o *PurchaseOrderOrchestrator) ListByState(ctx context.Context, state domainwf.State, limit, offset int) ([]*entity.Entity, error) {
	return o.entities.ListByKindState(ctx, domainwf.KindPurchaseOrder, state, limit, offset)
}
