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

// InvoiceOrchestrator exposes the vendor invoice verbs. The vendor's
// registration standing is re-checked at approval time, not just submission:
// a registration revoked between the two must block payment.
type InvoiceOrchestrator struct {
	executor *appwf.Executor
	entities port.EntityRepository
	vendors  *VendorOrchestrator
}

// NewInvoiceOrchestrator creates an invoice orchestrator
func NewInvoiceOrchestrator(executor *appwf.Executor, entities port.EntityRepository, vendors *VendorOrchestrator) *InvoiceOrchestrator {
	return &InvoiceOrchestrator{executor: executor, entities: entities, vendors: vendors}
}

// Submit files an invoice against a confirmed purchase order
func (o *InvoiceOrchestrator) Submit(ctx context.Context, createdBy string, p *entity.InvoicePayload) (*entity.Entity, error) {
	if p.InvoiceNumber == "" {
		return nil, fmt.Errorf("invoice number is required")
	}
	if p.AmountCents <= 0 {
		return nil, fmt.Errorf("invoice amount must be positive")
	}
	if err := o.vendors.RequireApproved(ctx, p.VendorID); err != nil {
		return nil, err
	}

	po, err := o.entities.GetByID(ctx, p.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if po.Kind != domainwf.KindPurchaseOrder {
		return nil, fmt.Errorf("%w: entity %d is a %s, not a purchase order", domainwf.ErrGuardFailed, p.PurchaseOrderID, po.Kind)
	}
	if po.State != domainwf.StatePOConfirmed {
		return nil, fmt.Errorf("%w: purchase order %d is %s, not CONFIRMED", domainwf.ErrGuardFailed, p.PurchaseOrderID, po.State)
	}

	return o.executor.Create(ctx, domainwf.KindInvoice, createdBy, p)
}

// Approve accepts the invoice for payment, provided the vendor registration
// is still in good standing
func (o *InvoiceOrchestrator) Approve(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	e, err := o.entities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, ok := e.Payload.(*entity.InvoicePayload)
	if !ok {
		return nil, fmt.Errorf("expected invoice payload, got %T", e.Payload)
	}
	if err := o.vendors.RequireApproved(ctx, p.VendorID); err != nil {
		return nil, err
	}
	return o.executor.Execute(ctx, id, domainwf.ActionApprove, actor)
}

// Reject declines the invoice
func (o *InvoiceOrchestrator) Reject(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionReject, actor)
}

// MarkPaid records the payment execution date and moves the invoice to PAID
func (o *InvoiceOrchestrator) MarkPaid(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	paidAt := time.Now()
	return o.executor.Execute(ctx, id, domainwf.ActionMarkPaid, actor, func(payload any) error {
		p, ok := payload.(*entity.InvoicePayload)
		if !ok {
			return fmt.Errorf("expected invoice payload, got %T", payload)
		}
		p.PaidAt = &paidAt
		return nil
	})
}

// ListByState returns invoices currently in the given state
func (o *InvoiceOrchestrator) ListByState(ctx context.Context, state domainwf.State, limit, offset int) ([]*entity.Entity, error) {
	return o.entities.ListByKindState(ctx, domainwf.KindInvoice, state, limit, offset)
}
