package workflow

// State represents a workflow state in an approval lifecycle
type State string

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// Kind identifies a workflow entity kind; each kind owns one state machine
type Kind string

const (
	KindRequisition        Kind = "REQUISITION"
	KindTravelRequest      Kind = "TRAVEL_REQUEST"
	KindTender             Kind = "TENDER"
	KindPurchaseOrder      Kind = "PURCHASE_ORDER"
	KindInvoice            Kind = "INVOICE"
	KindVendorRegistration Kind = "VENDOR_REGISTRATION"
)

var validKinds = map[Kind]bool{
	KindRequisition:        true,
	KindTravelRequest:      true,
	KindTender:             true,
	KindPurchaseOrder:      true,
	KindInvoice:            true,
	KindVendorRegistration: true,
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is a registered workflow kind
func (k Kind) IsValid() bool {
	return validKinds[k]
}

// Requisition states
const (
	StateReqPending   State = "PENDING"
	StateReqApproved  State = "APPROVED"
	StateReqRejected  State = "REJECTED"
	StateReqCancelled State = "CANCELLED"
)

// TravelRequest states
const (
	StateTravelSubmitted            State = "SUBMITTED"
	StateTravelSupervisorApproved   State = "SUPERVISOR_APPROVED"
	StateTravelFinalApproved        State = "FINAL_APPROVED"
	StateTravelFinancePending       State = "FINANCE_PENDING"
	StateTravelFinanceCleared       State = "FINANCE_CLEARED"
	StateTravelAwaitingDriver       State = "AWAITING_DRIVER"
	StateTravelDriverAssigned       State = "DRIVER_ASSIGNED"
	StateTravelAwaitingFlight       State = "AWAITING_FLIGHT"
	StateTravelFlightBooked         State = "FLIGHT_BOOKED"
	StateTravelNotificationsPending State = "NOTIFICATIONS_PENDING"
	StateTravelCompleted            State = "COMPLETED"
	StateTravelRejected             State = "REJECTED"
	StateTravelCancelled            State = "CANCELLED"
)

// Tender states
const (
	StateTenderDraft       State = "DRAFT"
	StateTenderOpen        State = "OPEN"
	StateTenderClosed      State = "CLOSED"
	StateTenderUnderReview State = "UNDER_REVIEW"
	StateTenderAwarded     State = "AWARDED"
	StateTenderCancelled   State = "CANCELLED"
)

// PurchaseOrder states
const (
	StatePOIssued    State = "ISSUED"
	StatePODelivered State = "DELIVERED"
	StatePOConfirmed State = "CONFIRMED"
	StatePOCancelled State = "CANCELLED"
)

// Invoice states
const (
	StateInvoiceSubmitted State = "SUBMITTED"
	StateInvoiceApproved  State = "APPROVED"
	StateInvoicePaid      State = "PAID"
	StateInvoiceRejected  State = "REJECTED"
)

// VendorRegistration states
const (
	StateVendorPending  State = "PENDING"
	StateVendorApproved State = "APPROVED"
	StateVendorRejected State = "REJECTED"
)
