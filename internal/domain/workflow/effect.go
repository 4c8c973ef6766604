package workflow

// Intent is the symbolic name of a side effect scheduled by a transition rule.
// Intents are resolved to collaborator calls by the side-effect dispatcher;
// the machine definitions only declare them.
type Intent string

const (
	IntentNotifyEmployee     Intent = "notify.employee"
	IntentNotifyDriver       Intent = "notify.driver"
	IntentNotifyManager      Intent = "notify.manager"
	IntentNotifyVendor       Intent = "notify.vendor"
	IntentNotifyProcurement  Intent = "notify.procurement"
	IntentGenerateItinerary  Intent = "document.itinerary"
	IntentGenerateAwardSheet Intent = "document.award_sheet"
	IntentGeneratePOForm     Intent = "document.purchase_order"
	IntentRecordDelivery     Intent = "delivery.record_confirmation"
)

// String returns the string representation of the intent
func (i Intent) String() string {
	return string(i)
}
