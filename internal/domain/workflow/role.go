package workflow

// Role is the workflow-facing role of an acting identity. Authentication and
// role assignment are owned by the identity provider; the engine only checks
// a rule's permitted-role set against the role it is handed.
type Role string

const (
	RoleEmployee           Role = "employee"
	RoleSupervisor         Role = "supervisor"
	RoleFinalApprover      Role = "final_approver"
	RoleFinance            Role = "finance"
	RoleFleetCoordinator   Role = "fleet_coordinator"
	RoleApprover           Role = "approver"
	RoleProcurementOfficer Role = "procurement_officer"
	RoleVendor             Role = "vendor"
	RoleRequester          Role = "requester"
	RoleAdmin              Role = "admin"

	// RoleSystem marks engine-initiated transitions such as the tender
	// deadline sweep and post-notification completion.
	RoleSystem Role = "system"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Actor is an authenticated identity acting on a workflow entity
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is the identity used for time-triggered and engine-internal transitions
var SystemActor = Actor{ID: "system/scheduler", Role: RoleSystem}
