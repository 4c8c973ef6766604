package orchestrator

import (
	"context"
	"fmt"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	appwf "github.com/ningi265/hrms-client-sub001/internal/application/workflow"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
	"github.com/ningi265/hrms-client-sub001/pkg/utils"
)

// RequisitionOrchestrator exposes the purchase requisition verbs on top of
// the transition executor
type RequisitionOrchestrator struct {
	executor *appwf.Executor
	entities port.EntityRepository
}

// NewRequisitionOrchestrator creates a requisition orchestrator
func NewRequisitionOrchestrator(executor *appwf.Executor, entities port.EntityRepository) *RequisitionOrchestrator {
	return &RequisitionOrchestrator{executor: executor, entities: entities}
}

// Create submits a new requisition in PENDING state
func (o *RequisitionOrchestrator) Create(ctx context.Context, createdBy string, p *entity.RequisitionPayload) (*entity.Entity, error) {
	if p.ItemName == "" {
		return nil, fmt.Errorf("requisition item name is required")
	}
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("requisition quantity must be positive")
	}
	if p.AmountCents <= 0 {
		return nil, fmt.Errorf("requisition amount must be positive")
	}
	if err := utils.ValidateCurrency(p.Currency); err != nil {
		return nil, err
	}
	return o.executor.Create(ctx, domainwf.KindRequisition, createdBy, p)
}

// Approve moves a pending requisition to APPROVED
func (o *RequisitionOrchestrator) Approve(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionApprove, actor)
}

// Reject moves a pending requisition to REJECTED
func (o *RequisitionOrchestrator) Reject(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionReject, actor)
}

// Cancel lets the requesting employee withdraw a pending requisition
func (o *RequisitionOrchestrator) Cancel(ctx context.Context, id int64, actor domainwf.Actor) (*entity.Entity, error) {
	return o.executor.Execute(ctx, id, domainwf.ActionCancel, actor)
}

// ListPending returns requisitions awaiting an approval decision
func (o *RequisitionOrchestrator) ListPending(ctx context.Context, limit, offset int) ([]*entity.Entity, error) {
	return o.entities.ListByKindState(ctx, domainwf.KindRequisition, domainwf.StateReqPending, limit, offset)
}
