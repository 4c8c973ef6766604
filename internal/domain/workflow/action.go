package workflow

// Action represents a requested operation that can cause a state transition
type Action string

// Requisition actions
const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionCancel  Action = "CANCEL"
)

// TravelRequest actions
const (
	ActionSupervisorApprove  Action = "SUPERVISOR_APPROVE"
	ActionSupervisorReject   Action = "SUPERVISOR_REJECT"
	ActionFinalApprove       Action = "FINAL_APPROVE"
	ActionFinalReject        Action = "FINAL_REJECT"
	ActionSubmitToFinance    Action = "SUBMIT_TO_FINANCE"
	ActionFinanceClear       Action = "FINANCE_CLEAR"
	ActionRequestDriver      Action = "REQUEST_DRIVER"
	ActionAssignDriver       Action = "ASSIGN_DRIVER"
	ActionRequestFlight      Action = "REQUEST_FLIGHT"
	ActionBookFlight         Action = "BOOK_FLIGHT"
	ActionBeginNotifications Action = "BEGIN_NOTIFICATIONS"
	ActionComplete           Action = "COMPLETE"
)

// Tender actions
const (
	ActionOpenTender  Action = "OPEN_TENDER"
	ActionCloseTender Action = "CLOSE_TENDER"
	ActionStartReview Action = "START_REVIEW"
	ActionAward       Action = "AWARD"
)

// PurchaseOrder actions
const (
	ActionMarkDelivered   Action = "MARK_DELIVERED"
	ActionConfirmDelivery Action = "CONFIRM_DELIVERY"
)

// Invoice actions
const (
	ActionMarkPaid Action = "MARK_PAID"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
