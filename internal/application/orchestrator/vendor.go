package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	appwf "github.com/ningi265/hrms-client-sub001/internal/application/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
	"github.com/ningi265/hrms-client-sub001/pkg/utils"
)

// VendorOrchestrator exposes the vendor registration verbs. Other
// orchestrators consult it before letting a vendor participate in
// procurement: only an APPROVED registration may receive awards, submit
// invoices, or be issued purchase orders.
type VendorOrchestrator struct {
	executor *appwf.Executor
	entities port.EntityRepository
}

// NewVendorOrchestrator creates a vendor registration orchestrator
func NewVendorOrchestrator(executor *appwf.Executor, entities port.EntityRepository) *VendorOrchestrator {
	return &VendorOrchestrator{executor: executor, entities: entities}
}

// Register submits a new vendor registration in PENDING state
func (o *VendorOrchestrator) Register(ctx context.Context, createdBy string, p *entity.VendorRegistrationPayload) (*entity.Entity, error) {
	if p.CompanyName == "" {
		return nil, fmt.Errorf("vendor company name is required")
	}
	if p.TaxID == "" {
		return nil, fmt.Errorf("vendor tax ID is required")
	}
	if err := utils.ValidateEmail(p.ContactEmail); err != nil {
		return nil, fmt.Errorf("vendor contact email: %w", err)
	}
	return o.executor.Create(ctx, domainwf.KindVendorRegistration, createdBy, p)
}

// Approve admits the vendor to the approved vendor pool
func (o *VendorOrchestrator) Approve(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionApprove, actor)
}

// Reject declines the registration
func (o *VendorOrchestrator) Reject(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionReject, actor)
}

// ListPending returns registrations awaiting an admin decision
func (o *VendorOrchestrator) ListPending(ctx context.Context, limit, offset int) ([]*entity.Entity, error) {
	return o.entities.ListByKindState(ctx, domainwf.KindVendorRegistration, domainwf.StateVendorPending, limit, offset)
}

// RequireApproved resolves a vendor reference (the decimal registration
// entity ID) and fails with ErrGuardFailed unless the registration is
// APPROVED. Used as a cross-entity precondition by the tender, purchase order
// and invoice orchestrators.
func (o *VendorOrchestrator) RequireApproved(ctx context.Context, vendorID string) error {
	id, err := strconv.ParseInt(vendorID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: vendor reference %q is not a registration ID", domainwf.ErrGuardFailed, vendorID)
	}

	reg, err := o.entities.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: vendor registration %d not found", domainwf.ErrGuardFailed, id)
	}
	if reg.Kind != domainwf.KindVendorRegistration {
		return fmt.Errorf("%w: entity %d is a %s, not a vendor registration", domainwf.ErrGuardFailed, id, reg.Kind)
	}
	if reg.State != domainwf.StateVendorApproved {
		return fmt.Errorf("%w: vendor registration %d is %s, not APPROVED", domainwf.ErrGuardFailed, id, reg.State)
	}
	return nil
}
