package sideeffect

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	domainwf "github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// procurementDesk is the shared inbox for procurement-team notifications
const procurementDesk = "procurement-desk"

// Collaborators groups the external services the default handlers call
type Collaborators struct {
	Notifier port.NotificationService
	Docs     port.DocumentService
	Delivery port.DeliveryService
}

// RegisterDefaultHandlers binds the standard handler for every intent the
// machine definitions declare
func RegisterDefaultHandlers(d *Dispatcher, c Collaborators, logger *zap.Logger) {
	d.Register(domainwf.IntentNotifyEmployee, notifyEmployee(c.Notifier))
	d.Register(domainwf.IntentNotifyDriver, notifyDriver(c.Notifier, logger))
	d.Register(domainwf.IntentNotifyManager, notifyManager(c.Notifier, logger))
	d.Register(domainwf.IntentNotifyVendor, notifyVendor(c.Notifier))
	d.Register(domainwf.IntentNotifyProcurement, notifyProcurement(c.Notifier))
	d.Register(domainwf.IntentGenerateItinerary, generateDocument(c.Docs, "itinerary"))
	d.Register(domainwf.IntentGenerateAwardSheet, generateDocument(c.Docs, "award_sheet"))
	d.Register(domainwf.IntentGeneratePOForm, generateDocument(c.Docs, "purchase_order"))
	d.Register(domainwf.IntentRecordDelivery, recordDelivery(c.Delivery))
}

func notifyEmployee(notifier port.NotificationService) HandlerFunc {
	return func(ctx context.Context, e *entity.Entity) error {
		recipients := []port.Recipient{{Address: e.CreatedBy, Role: domainwf.RoleEmployee}}
		subject := fmt.Sprintf("%s #%d is now %s", titleFor(e.Kind), e.ID, e.State)
		return notifier.Send(ctx, recipients, subject, statusBody(e))
	}
}

// notifyDriver is a no-op for travel that never got a driver assigned; the
// intent fires on every path into NOTIFICATIONS_PENDING.
func notifyDriver(notifier port.NotificationService, logger *zap.Logger) HandlerFunc {
	return func(ctx context.Context, e *entity.Entity) error {
		p, ok := e.Payload.(*entity.TravelRequestPayload)
		if !ok {
			return fmt.Errorf("notify.driver on non-travel entity %d (%s)", e.ID, e.Kind)
		}
		if p.AssignedDriverID == "" {
			logger.Debug("Skipping driver notification, no driver assigned",
				zap.Int64("entity_id", e.ID))
			return nil
		}
		recipients := []port.Recipient{{Address: p.AssignedDriverID, Role: domainwf.RoleFleetCoordinator}}
		subject := fmt.Sprintf("Trip assignment: %s to %s", p.Origin, p.Destination)
		body := fmt.Sprintf("You are assigned to drive for travel request #%d departing %s.",
			e.ID, p.DepartDate.Format("2006-01-02"))
		return notifier.Send(ctx, recipients, subject, body)
	}
}

func notifyManager(notifier port.NotificationService, logger *zap.Logger) HandlerFunc {
	return func(ctx context.Context, e *entity.Entity) error {
		p, ok := e.Payload.(*entity.TravelRequestPayload)
		if !ok {
			return fmt.Errorf("notify.manager on non-travel entity %d (%s)", e.ID, e.Kind)
		}
		if p.ManagerID == "" {
			logger.Debug("Skipping manager notification, no manager on record",
				zap.Int64("entity_id", e.ID))
			return nil
		}
		recipients := []port.Recipient{{Address: p.ManagerID, Role: domainwf.RoleSupervisor}}
		subject := fmt.Sprintf("Travel request #%d is ready", e.ID)
		return notifier.Send(ctx, recipients, subject, statusBody(e))
	}
}

func notifyVendor(notifier port.NotificationService) HandlerFunc {
	return func(ctx context.Context, e *entity.Entity) error {
		address, err := vendorAddress(e)
		if err != nil {
			return err
		}
		recipients := []port.Recipient{{Address: address, Role: domainwf.RoleVendor}}
		subject := fmt.Sprintf("%s #%d is now %s", titleFor(e.Kind), e.ID, e.State)
		return notifier.Send(ctx, recipients, subject, statusBody(e))
	}
}

func notifyProcurement(notifier port.NotificationService) HandlerFunc {
	return func(ctx context.Context, e *entity.Entity) error {
		recipients := []port.Recipient{{Address: procurementDesk, Role: domainwf.RoleProcurementOfficer}}
		subject := fmt.Sprintf("%s #%d is now %s", titleFor(e.Kind), e.ID, e.State)
		return notifier.Send(ctx, recipients, subject, statusBody(e))
	}
}

func generateDocument(docs port.DocumentService, templateKind string) HandlerFunc {
	return func(ctx context.Context, e *entity.Entity) error {
		_, err := docs.Generate(ctx, templateKind, e)
		return err
	}
}

func recordDelivery(delivery port.DeliveryService) HandlerFunc {
	return func(ctx context.Context, e *entity.Entity) error {
		p, ok := e.Payload.(*entity.PurchaseOrderPayload)
		if !ok {
			return fmt.Errorf("delivery.record_confirmation on non-PO entity %d (%s)", e.ID, e.Kind)
		}
		return delivery.RecordConfirmation(ctx, e.ID, p.ProofOfDelivery, p.ReceivedBy)
	}
}

func vendorAddress(e *entity.Entity) (string, error) {
	switch p := e.Payload.(type) {
	case *entity.VendorRegistrationPayload:
		return p.ContactEmail, nil
	case *entity.InvoicePayload:
		return p.VendorID, nil
	case *entity.PurchaseOrderPayload:
		return p.VendorID, nil
	case *entity.TenderPayload:
		if p.AwardedVendorID == "" {
			return "", fmt.Errorf("tender %d has no awarded vendor", e.ID)
		}
		return p.AwardedVendorID, nil
	default:
		return "", fmt.Errorf("notify.vendor on unsupported entity %d (%s)", e.ID, e.Kind)
	}
}

func titleFor(kind domainwf.Kind) string {
	switch kind {
	case domainwf.KindRequisition:
		return "Requisition"
	case domainwf.KindTravelRequest:
		return "Travel request"
	case domainwf.KindTender:
		return "Tender"
	case domainwf.KindPurchaseOrder:
		return "Purchase order"
	case domainwf.KindInvoice:
		return "Invoice"
	case domainwf.KindVendorRegistration:
		return "Vendor registration"
	default:
		return string(kind)
	}
}

func statusBody(e *entity.Entity) string {
	return fmt.Sprintf("%s #%d moved to state %s on %s.",
		titleFor(e.Kind), e.ID, e.State, e.UpdatedAt.Format("2006-01-02 15:04"))
}
