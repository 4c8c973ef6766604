package port

import (
	"context"

	"github.com/ningi265/hrms-client-sub001/internal/domain/entity"
	"github.com/ningi265/hrms-client-sub001/internal/domain/workflow"
)

// Recipient is a role-tagged notification address
type Recipient struct {
	Address string
	Role    workflow.Role
}

// NotificationService delivers workflow notifications to role-tagged
// recipients. Implementations must be safe for concurrent use; the dispatcher
// calls them from retry sweeps as well as the initial dispatch.
type NotificationService interface {
	Send(ctx context.Context, recipients []Recipient, subject, body string, attachments ...string) error
}

// DocumentHandle identifies a generated document
type DocumentHandle struct {
	Number string
	Path   string
}

// DocumentService generates documents (itineraries, award sheets, purchase
// order forms) from workflow entities
type DocumentService interface {
	Generate(ctx context.Context, templateKind string, e *entity.Entity) (DocumentHandle, error)
}

// DeliveryService records proof-of-delivery confirmations for purchase orders
type DeliveryService interface {
	RecordConfirmation(ctx context.Context, poID int64, proofOfDelivery string, receivedBy string) error
}
