package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

func TestNewRegistryCoversAllKinds(t *testing.T) {
	r := NewRegistry()

	kinds := []domainwf.Kind{
		domainwf.KindRequisition,
		domainwf.KindTravelRequest,
		domainwf.KindTender,
		domainwf.KindPurchaseOrder,
		domainwf.KindInvoice,
		domainwf.KindVendorRegistration,
	}
	for _, kind := range kinds {
		if _, err := r.Machine(kind); err != nil {
			t.Errorf("registry has no machine for %s: %v", kind, err)
		}
	}
}

func TestRequisitionMachineTransitions(t *testing.T) {
	m := BuildRequisitionMachine()

	tests := []struct {
		name    string
		from    domainwf.State
		action  domainwf.Action
		role    domainwf.Role
		wantTo  domainwf.State
		wantErr error
	}{
		{
			name:   "approver approves pending",
			from:   domainwf.StateReqPending,
			action: domainwf.ActionApprove,
			role:   domainwf.RoleApprover,
			wantTo: domainwf.StateReqApproved,
		},
		{
			name:   "employee cancels pending",
			from:   domainwf.StateReqPending,
			action: domainwf.ActionCancel,
			role:   domainwf.RoleEmployee,
			wantTo: domainwf.StateReqCancelled,
		},
		{
			name:    "approve after approval is invalid",
			from:    domainwf.StateReqApproved,
			action:  domainwf.ActionApprove,
			role:    domainwf.RoleApprover,
			wantErr: domainwf.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := m.Resolve(tt.from, tt.action)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if rule.To != tt.wantTo {
				t.Errorf("Resolve() to = %v, want %v", rule.To, tt.wantTo)
			}
			if !rule.Allows(tt.role) {
				t.Errorf("role %s should be allowed to %s", tt.role, tt.action)
			}
		})
	}
}

func TestTravelGuardNeedsDriver(t *testing.T) {
	tests := []struct {
		name    string
		payload *entity.TravelRequestPayload
		wantErr bool
	}{
		{
			name:    "driver required",
			payload: &entity.TravelRequestPayload{RequiresDriver: true},
		},
		{
			name:    "driver not required",
			payload: &entity.TravelRequestPayload{RequiresDriver: false},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guardNeedsDriver(context.Background(), tt.payload)
			if tt.wantErr {
				if !errors.Is(err, domainwf.ErrGuardFailed) {
					t.Errorf("guardNeedsDriver() error = %v, want ErrGuardFailed", err)
				}
				return
			}
			if err != nil {
				t.Errorf("guardNeedsDriver() unexpected error: %v", err)
			}
		})
	}
}

func TestTravelGuardCanRequestFlight(t *testing.T) {
	tests := []struct {
		name    string
		payload *entity.TravelRequestPayload
		wantErr bool
	}{
		{
			name:    "flight only",
			payload: &entity.TravelRequestPayload{RequiresFlight: true},
		},
		{
			name: "both required, driver already assigned",
			payload: &entity.TravelRequestPayload{
				RequiresFlight:   true,
				RequiresDriver:   true,
				AssignedDriverID: "drv-7",
			},
		},
		{
			name: "both required, driver branch not done yet",
			payload: &entity.TravelRequestPayload{
				RequiresFlight: true,
				RequiresDriver: true,
			},
			wantErr: true,
		},
		{
			name:    "no flight required",
			payload: &entity.TravelRequestPayload{RequiresDriver: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guardCanRequestFlight(context.Background(), tt.payload)
			if tt.wantErr {
				if !errors.Is(err, domainwf.ErrGuardFailed) {
					t.Errorf("guardCanRequestFlight() error = %v, want ErrGuardFailed", err)
				}
				return
			}
			if err != nil {
				t.Errorf("guardCanRequestFlight() unexpected error: %v", err)
			}
		})
	}
}

func TestTravelGuardResourcesReady(t *testing.T) {
	tests := []struct {
		name    string
		payload *entity.TravelRequestPayload
		wantErr bool
	}{
		{
			name:    "nothing required",
			payload: &entity.TravelRequestPayload{},
		},
		{
			name: "all resources in place",
			payload: &entity.TravelRequestPayload{
				RequiresDriver:   true,
				RequiresFlight:   true,
				AssignedDriverID: "drv-7",
				FlightReference:  "ET-502",
			},
		},
		{
			name: "driver missing",
			payload: &entity.TravelRequestPayload{
				RequiresDriver: true,
			},
			wantErr: true,
		},
		{
			name: "flight missing",
			payload: &entity.TravelRequestPayload{
				RequiresFlight: true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guardResourcesReady(context.Background(), tt.payload)
			if tt.wantErr {
				if !errors.Is(err, domainwf.ErrGuardFailed) {
					t.Errorf("guardResourcesReady() error = %v, want ErrGuardFailed", err)
				}
				return
			}
			if err != nil {
				t.Errorf("guardResourcesReady() unexpected error: %v", err)
			}
		})
	}
}

func TestTravelGuardRejectsWrongPayloadType(t *testing.T) {
	err := guardNeedsDriver(context.Background(), &entity.TenderPayload{})
	if !errors.Is(err, domainwf.ErrGuardFailed) {
		t.Errorf("guard on wrong payload type: error = %v, want ErrGuardFailed", err)
	}
}

func TestTenderDeadlineGuards(t *testing.T) {
	past := &entity.TenderPayload{Deadline: time.Now().Add(-time.Hour)}
	future := &entity.TenderPayload{Deadline: time.Now().Add(time.Hour)}

	if err := guardDeadlinePassed(context.Background(), past); err != nil {
		t.Errorf("close after deadline should pass, got %v", err)
	}
	if err := guardDeadlinePassed(context.Background(), future); !errors.Is(err, domainwf.ErrGuardFailed) {
		t.Errorf("close before deadline: error = %v, want ErrGuardFailed", err)
	}

	if err := guardDeadlineNotPassed(context.Background(), future); err != nil {
		t.Errorf("review before deadline should pass, got %v", err)
	}
	if err := guardDeadlineNotPassed(context.Background(), past); !errors.Is(err, domainwf.ErrExpiredDeadline) {
		t.Errorf("review after deadline: error = %v, want ErrExpiredDeadline", err)
	}
}

func TestTravelMachineNotificationEffects(t *testing.T) {
	m := BuildTravelRequestMachine()

	froms := []domainwf.State{
		domainwf.StateTravelFinanceCleared,
		domainwf.StateTravelDriverAssigned,
		domainwf.StateTravelFlightBooked,
	}
	for _, from := range froms {
		rule, err := m.Resolve(from, domainwf.ActionBeginNotifications)
		if err != nil {
			t.Fatalf("Resolve(%s, BEGIN_NOTIFICATIONS) unexpected error: %v", from, err)
		}
		if len(rule.Effects) != len(travelNotificationEffects) {
			t.Errorf("effects from %s = %v, want %v", from, rule.Effects, travelNotificationEffects)
		}
		if !rule.Allows(domainwf.RoleSystem) {
			t.Errorf("system actor should be able to begin notifications from %s", from)
		}
	}
}

func TestTenderMachineSystemClose(t *testing.T) {
	m := BuildTenderMachine()

	rule, err := m.Resolve(domainwf.StateTenderOpen, domainwf.ActionCloseTender)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if !rule.Allows(domainwf.RoleSystem) {
		t.Error("the deadline sweeper must be able to close an open tender")
	}
	if rule.Guard == nil {
		t.Error("closing an open tender must be deadline-guarded")
	}
}

func TestPurchaseOrderMachineRoles(t *testing.T) {
	m := BuildPurchaseOrderMachine()

	delivered, err := m.Resolve(domainwf.StatePOIssued, domainwf.ActionMarkDelivered)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if !delivered.Allows(domainwf.RoleVendor) || delivered.Allows(domainwf.RoleRequester) {
		t.Error("only the vendor marks a purchase order delivered")
	}

	confirmed, err := m.Resolve(domainwf.StatePODelivered, domainwf.ActionConfirmDelivery)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if !confirmed.Allows(domainwf.RoleRequester) || confirmed.Allows(domainwf.RoleVendor) {
		t.Error("only the requester confirms delivery")
	}
	if !m.IsTerminal(domainwf.StatePOConfirmed) {
		t.Error("CONFIRMED should be terminal for a purchase order")
	}
}

func TestInvoiceMachineFinanceOnly(t *testing.T) {
	m := BuildInvoiceMachine()

	for _, action := range []domainwf.Action{domainwf.ActionApprove, domainwf.ActionReject} {
		rule, err := m.Resolve(domainwf.StateInvoiceSubmitted, action)
		if err != nil {
			t.Fatalf("Resolve(%s) unexpected error: %v", action, err)
		}
		if !rule.Allows(domainwf.RoleFinance) {
			t.Errorf("finance should be allowed to %s an invoice", action)
		}
		if rule.Allows(domainwf.RoleVendor) {
			t.Errorf("vendor must not %s its own invoice", action)
		}
	}
}
