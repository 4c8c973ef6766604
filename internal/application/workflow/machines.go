package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// NewRegistry builds the registry holding one compiled machine per entity
// kind. Called once at process start; any misconfiguration panics here rather
// than surfacing mid-request.
func NewRegistry() *domainwf.Registry {
	r := domainwf.NewRegistry()
	r.Register(BuildRequisitionMachine())
	r.Register(BuildTravelRequestMachine())
	r.Register(BuildTenderMachine())
	r.Register(BuildPurchaseOrderMachine())
	r.Register(BuildInvoiceMachine())
	r.Register(BuildVendorRegistrationMachine())
	return r
}

// BuildRequisitionMachine creates the purchase requisition machine.
// Tender fan-out from an approved requisition is an external trigger owned by
// the tender orchestrator, not an automatic transition.
func BuildRequisitionMachine() *domainwf.Machine {
	b := domainwf.NewBuilder(
		domainwf.KindRequisition,
		domainwf.StateReqPending,
		[]domainwf.State{
			domainwf.StateReqPending,
			domainwf.StateReqApproved,
			domainwf.StateReqRejected,
			domainwf.StateReqCancelled,
		},
		[]domainwf.State{
			domainwf.StateReqApproved,
			domainwf.StateReqRejected,
			domainwf.StateReqCancelled,
		},
	)

	b.Configure(domainwf.StateReqPending).
		Permit(domainwf.ActionApprove, domainwf.StateReqApproved, domainwf.RoleApprover).
		WithEffects(domainwf.IntentNotifyEmployee).
		Permit(domainwf.ActionReject, domainwf.StateReqRejected, domainwf.RoleApprover).
		WithEffects(domainwf.IntentNotifyEmployee).
		Permit(domainwf.ActionCancel, domainwf.StateReqCancelled, domainwf.RoleEmployee)

	return b.Build()
}

// BuildTravelRequestMachine creates the travel request machine. Driver and
// flight sub-flows are gated on the requirement flags computed at creation;
// when both are required the driver branch runs first so the itinerary has a
// driver before flights are booked.
func BuildTravelRequestMachine() *domainwf.Machine {
	b := domainwf.NewBuilder(
		domainwf.KindTravelRequest,
		domainwf.StateTravelSubmitted,
		[]domainwf.State{
			domainwf.StateTravelSubmitted,
			domainwf.StateTravelSupervisorApproved,
			domainwf.StateTravelFinalApproved,
			domainwf.StateTravelFinancePending,
			domainwf.StateTravelFinanceCleared,
			domainwf.StateTravelAwaitingDriver,
			domainwf.StateTravelDriverAssigned,
			domainwf.StateTravelAwaitingFlight,
			domainwf.StateTravelFlightBooked,
			domainwf.StateTravelNotificationsPending,
			domainwf.StateTravelCompleted,
			domainwf.StateTravelRejected,
			domainwf.StateTravelCancelled,
		},
		[]domainwf.State{
			domainwf.StateTravelCompleted,
			domainwf.StateTravelRejected,
			domainwf.StateTravelCancelled,
		},
	)

	b.Configure(domainwf.StateTravelSubmitted).
		Permit(domainwf.ActionSupervisorApprove, domainwf.StateTravelSupervisorApproved, domainwf.RoleSupervisor).
		Permit(domainwf.ActionSupervisorReject, domainwf.StateTravelRejected, domainwf.RoleSupervisor).
		WithEffects(domainwf.IntentNotifyEmployee).
		Permit(domainwf.ActionCancel, domainwf.StateTravelCancelled, domainwf.RoleEmployee)

	b.Configure(domainwf.StateTravelSupervisorApproved).
		Permit(domainwf.ActionFinalApprove, domainwf.StateTravelFinalApproved, domainwf.RoleFinalApprover).
		Permit(domainwf.ActionFinalReject, domainwf.StateTravelRejected, domainwf.RoleFinalApprover).
		WithEffects(domainwf.IntentNotifyEmployee).
		Permit(domainwf.ActionCancel, domainwf.StateTravelCancelled, domainwf.RoleEmployee)

	b.Configure(domainwf.StateTravelFinalApproved).
		Permit(domainwf.ActionSubmitToFinance, domainwf.StateTravelFinancePending, domainwf.RoleFinance).
		Permit(domainwf.ActionCancel, domainwf.StateTravelCancelled, domainwf.RoleEmployee)

	b.Configure(domainwf.StateTravelFinancePending).
		Permit(domainwf.ActionFinanceClear, domainwf.StateTravelFinanceCleared, domainwf.RoleFinance).
		Permit(domainwf.ActionCancel, domainwf.StateTravelCancelled, domainwf.RoleEmployee)

	b.Configure(domainwf.StateTravelFinanceCleared).
		PermitIf(domainwf.ActionRequestDriver, domainwf.StateTravelAwaitingDriver, guardNeedsDriver, domainwf.RoleFleetCoordinator).
		PermitIf(domainwf.ActionRequestFlight, domainwf.StateTravelAwaitingFlight, guardCanRequestFlight, domainwf.RoleFleetCoordinator).
		PermitIf(domainwf.ActionBeginNotifications, domainwf.StateTravelNotificationsPending, guardResourcesReady, domainwf.RoleFleetCoordinator, domainwf.RoleSystem).
		WithEffects(travelNotificationEffects...)

	b.Configure(domainwf.StateTravelAwaitingDriver).
		Permit(domainwf.ActionAssignDriver, domainwf.StateTravelDriverAssigned, domainwf.RoleFleetCoordinator)

	b.Configure(domainwf.StateTravelDriverAssigned).
		PermitIf(domainwf.ActionRequestFlight, domainwf.StateTravelAwaitingFlight, guardCanRequestFlight, domainwf.RoleFleetCoordinator).
		PermitIf(domainwf.ActionBeginNotifications, domainwf.StateTravelNotificationsPending, guardResourcesReady, domainwf.RoleFleetCoordinator, domainwf.RoleSystem).
		WithEffects(travelNotificationEffects...)

	b.Configure(domainwf.StateTravelAwaitingFlight).
		Permit(domainwf.ActionBookFlight, domainwf.StateTravelFlightBooked, domainwf.RoleFleetCoordinator)

	b.Configure(domainwf.StateTravelFlightBooked).
		PermitIf(domainwf.ActionBeginNotifications, domainwf.StateTravelNotificationsPending, guardResourcesReady, domainwf.RoleFleetCoordinator, domainwf.RoleSystem).
		WithEffects(travelNotificationEffects...)

	b.Configure(domainwf.StateTravelNotificationsPending).
		Permit(domainwf.ActionComplete, domainwf.StateTravelCompleted, domainwf.RoleFleetCoordinator, domainwf.RoleSystem)

	return b.Build()
}

var travelNotificationEffects = []domainwf.Intent{
	domainwf.IntentGenerateItinerary,
	domainwf.IntentNotifyEmployee,
	domainwf.IntentNotifyDriver,
	domainwf.IntentNotifyManager,
}

// BuildTenderMachine creates the tender machine. Closing an open tender is
// time-triggered: the deadline sweeper fires CLOSE_TENDER as the system actor
// once the deadline lapses.
func BuildTenderMachine() *domainwf.Machine {
	b := domainwf.NewBuilder(
		domainwf.KindTender,
		domainwf.StateTenderDraft,
		[]domainwf.State{
			domainwf.StateTenderDraft,
			domainwf.StateTenderOpen,
			domainwf.StateTenderClosed,
			domainwf.StateTenderUnderReview,
			domainwf.StateTenderAwarded,
			domainwf.StateTenderCancelled,
		},
		[]domainwf.State{
			domainwf.StateTenderAwarded,
			domainwf.StateTenderCancelled,
		},
	)

	b.Configure(domainwf.StateTenderDraft).
		Permit(domainwf.ActionOpenTender, domainwf.StateTenderOpen, domainwf.RoleProcurementOfficer).
		Permit(domainwf.ActionCancel, domainwf.StateTenderCancelled, domainwf.RoleProcurementOfficer)

	b.Configure(domainwf.StateTenderOpen).
		PermitIf(domainwf.ActionCloseTender, domainwf.StateTenderClosed, guardDeadlinePassed, domainwf.RoleSystem, domainwf.RoleProcurementOfficer).
		PermitIf(domainwf.ActionStartReview, domainwf.StateTenderUnderReview, guardDeadlineNotPassed, domainwf.RoleProcurementOfficer).
		Permit(domainwf.ActionCancel, domainwf.StateTenderCancelled, domainwf.RoleProcurementOfficer)

	b.Configure(domainwf.StateTenderClosed).
		Permit(domainwf.ActionStartReview, domainwf.StateTenderUnderReview, domainwf.RoleProcurementOfficer).
		Permit(domainwf.ActionCancel, domainwf.StateTenderCancelled, domainwf.RoleProcurementOfficer)

	b.Configure(domainwf.StateTenderUnderReview).
		Permit(domainwf.ActionAward, domainwf.StateTenderAwarded, domainwf.RoleProcurementOfficer).
		WithEffects(domainwf.IntentGenerateAwardSheet, domainwf.IntentNotifyVendor).
		Permit(domainwf.ActionCancel, domainwf.StateTenderCancelled, domainwf.RoleProcurementOfficer)

	return b.Build()
}

// BuildPurchaseOrderMachine creates the purchase order machine. CONFIRMED is
// terminal for delivery tracking; invoice settlement is an independent
// Invoice entity.
func BuildPurchaseOrderMachine() *domainwf.Machine {
	b := domainwf.NewBuilder(
		domainwf.KindPurchaseOrder,
		domainwf.StatePOIssued,
		[]domainwf.State{
			domainwf.StatePOIssued,
			domainwf.StatePODelivered,
			domainwf.StatePOConfirmed,
			domainwf.StatePOCancelled,
		},
		[]domainwf.State{
			domainwf.StatePOConfirmed,
			domainwf.StatePOCancelled,
		},
	)

	b.Configure(domainwf.StatePOIssued).
		Permit(domainwf.ActionMarkDelivered, domainwf.StatePODelivered, domainwf.RoleVendor).
		Permit(domainwf.ActionCancel, domainwf.StatePOCancelled, domainwf.RoleProcurementOfficer)

	b.Configure(domainwf.StatePODelivered).
		Permit(domainwf.ActionConfirmDelivery, domainwf.StatePOConfirmed, domainwf.RoleRequester).
		WithEffects(domainwf.IntentRecordDelivery, domainwf.IntentNotifyProcurement)

	return b.Build()
}

// BuildInvoiceMachine creates the invoice machine. The cross-entity guard
// (vendor registration must be approved before an invoice is approved) is
// enforced by the invoice orchestrator, which is the layer with store access.
func BuildInvoiceMachine() *domainwf.Machine {
	b := domainwf.NewBuilder(
		domainwf.KindInvoice,
		domainwf.StateInvoiceSubmitted,
		[]domainwf.State{
			domainwf.StateInvoiceSubmitted,
			domainwf.StateInvoiceApproved,
			domainwf.StateInvoicePaid,
			domainwf.StateInvoiceRejected,
		},
		[]domainwf.State{
			domainwf.StateInvoicePaid,
			domainwf.StateInvoiceRejected,
		},
	)

	b.Configure(domainwf.StateInvoiceSubmitted).
		Permit(domainwf.ActionApprove, domainwf.StateInvoiceApproved, domainwf.RoleFinance).
		WithEffects(domainwf.IntentNotifyVendor).
		Permit(domainwf.ActionReject, domainwf.StateInvoiceRejected, domainwf.RoleFinance).
		WithEffects(domainwf.IntentNotifyVendor)

	b.Configure(domainwf.StateInvoiceApproved).
		Permit(domainwf.ActionMarkPaid, domainwf.StateInvoicePaid, domainwf.RoleFinance).
		WithEffects(domainwf.IntentNotifyVendor)

	return b.Build()
}

// BuildVendorRegistrationMachine creates the vendor registration machine.
// An approved registration unlocks quote and invoice submission in the other
// machines.
func BuildVendorRegistrationMachine() *domainwf.Machine {
	b := domainwf.NewBuilder(
		domainwf.KindVendorRegistration,
		domainwf.StateVendorPending,
		[]domainwf.State{
			domainwf.StateVendorPending,
			domainwf.StateVendorApproved,
			domainwf.StateVendorRejected,
		},
		[]domainwf.State{
			domainwf.StateVendorApproved,
			domainwf.StateVendorRejected,
		},
	)

	b.Configure(domainwf.StateVendorPending).
		Permit(domainwf.ActionApprove, domainwf.StateVendorApproved, domainwf.RoleAdmin).
		WithEffects(domainwf.IntentNotifyVendor).
		Permit(domainwf.ActionReject, domainwf.StateVendorRejected, domainwf.RoleAdmin).
		WithEffects(domainwf.IntentNotifyVendor)

	return b.Build()
}

func guardNeedsDriver(_ context.Context, payload any) error {
	p, err := travelPayload(payload)
	if err != nil {
		return err
	}
	if !p.RequiresDriver {
		return fmt.Errorf("%w: travel request does not require a driver", domainwf.ErrGuardFailed)
	}
	return nil
}

// guardCanRequestFlight requires the flight flag, and the driver branch to be
// satisfied first when both are required.
func guardCanRequestFlight(_ context.Context, payload any) error {
	p, err := travelPayload(payload)
	if err != nil {
		return err
	}
	if !p.RequiresFlight {
		return fmt.Errorf("%w: travel request does not require a flight", domainwf.ErrGuardFailed)
	}
	if p.RequiresDriver && p.AssignedDriverID == "" {
		return fmt.Errorf("%w: driver must be assigned before booking flights", domainwf.ErrGuardFailed)
	}
	return nil
}

func guardResourcesReady(_ context.Context, payload any) error {
	p, err := travelPayload(payload)
	if err != nil {
		return err
	}
	if p.RequiresDriver && p.AssignedDriverID == "" {
		return fmt.Errorf("%w: driver not yet assigned", domainwf.ErrGuardFailed)
	}
	if p.RequiresFlight && p.FlightReference == "" {
		return fmt.Errorf("%w: flight not yet booked", domainwf.ErrGuardFailed)
	}
	return nil
}

func guardDeadlinePassed(_ context.Context, payload any) error {
	p, err := tenderPayload(payload)
	if err != nil {
		return err
	}
	if time.Now().Before(p.Deadline) {
		return fmt.Errorf("%w: tender deadline has not been reached", domainwf.ErrGuardFailed)
	}
	return nil
}

func guardDeadlineNotPassed(_ context.Context, payload any) error {
	p, err := tenderPayload(payload)
	if err != nil {
		return err
	}
	if time.Now().After(p.Deadline) {
		return fmt.Errorf("%w: tender closed at %s", domainwf.ErrExpiredDeadline, p.Deadline.Format(time.RFC3339))
	}
	return nil
}

func travelPayload(payload any) (*entity.TravelRequestPayload, error) {
	p, ok := payload.(*entity.TravelRequestPayload)
	if !ok {
		return nil, fmt.Errorf("%w: expected travel request payload, got %T", domainwf.ErrGuardFailed, payload)
	}
	return p, nil
}

func tenderPayload(payload any) (*entity.TenderPayload, error) {
	p, ok := payload.(*entity.TenderPayload)
	if !ok {
		return nil, fmt.Errorf("%w: expected tender payload, got %T", domainwf.ErrGuardFailed, payload)
	}
	return p, nil
}
