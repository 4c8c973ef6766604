package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// RequisitionPayload holds the attributes of a purchase requisition
type RequisitionPayload struct {
	ItemName      string `json:"item_name"`
	Quantity      int    `json:"quantity"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	Department    string `json:"department"`
	Justification string `json:"justification"`
	TenderID      int64  `json:"tender_id,omitempty"`
}

// TravelRequestPayload holds the attributes of a travel request. The
// requirement flags are computed once at creation from the means of travel
// and destination, so the machine guards have stable inputs.
type TravelRequestPayload struct {
	Purpose       string    `json:"purpose"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	International bool      `json:"international"`
	MeansOfTravel string    `json:"means_of_travel"`
	DepartDate    time.Time `json:"depart_date"`
	ReturnDate    time.Time `json:"return_date"`

	RequiresDriver bool `json:"requires_driver"`
	RequiresFlight bool `json:"requires_flight"`

	AssignedDriverID string `json:"assigned_driver_id,omitempty"`
	FlightReference  string `json:"flight_reference,omitempty"`

	ManagerID string `json:"manager_id,omitempty"`
}

// TenderPayload holds the attributes of a tender/RFQ
type TenderPayload struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Deadline        time.Time `json:"deadline"`
	RequisitionID   int64     `json:"requisition_id,omitempty"`
	AwardedVendorID string    `json:"awarded_vendor_id,omitempty"`
}

// PurchaseOrderPayload holds the attributes of a purchase order
type PurchaseOrderPayload struct {
	RequisitionID   int64      `json:"requisition_id,omitempty"`
	VendorID        string     `json:"vendor_id"`
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	DeliveryAddress string     `json:"delivery_address"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
	ProofOfDelivery string     `json:"proof_of_delivery,omitempty"`
	ReceivedBy      string     `json:"received_by,omitempty"`
}

// InvoicePayload holds the attributes of a vendor invoice
type InvoicePayload struct {
	PurchaseOrderID int64      `json:"purchase_order_id"`
	VendorID        string     `json:"vendor_id"`
	InvoiceNumber   string     `json:"invoice_number"`
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	DueDate         time.Time  `json:"due_date"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
}

// VendorRegistrationPayload holds the attributes of a vendor registration
type VendorRegistrationPayload struct {
	CompanyName  string   `json:"company_name"`
	TaxID        string   `json:"tax_id"`
	ContactEmail string   `json:"contact_email"`
	Categories   []string `json:"categories,omitempty"`
}

// EncodePayload serializes a payload for storage
func EncodePayload(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

// DecodePayload deserializes a stored payload into the kind's concrete type
func DecodePayload(kind workflow.Kind, raw string) (any, error) {
	var payload any
	switch kind {
	case workflow.KindRequisition:
		payload = &RequisitionPayload{}
	case workflow.KindTravelRequest:
		payload = &TravelRequestPayload{}
	case workflow.KindTender:
		payload = &TenderPayload{}
	case workflow.KindPurchaseOrder:
		payload = &PurchaseOrderPayload{}
	case workflow.KindInvoice:
		payload = &InvoicePayload{}
	case workflow.KindVendorRegistration:
		payload = &VendorRegistrationPayload{}
	default:
		return nil, fmt.Errorf("%w: %s", workflow.ErrUnknownKind, kind)
	}

	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
	}
	return payload, nil
}
