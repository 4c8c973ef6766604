package delivery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
)

// Recorder implements port.DeliveryService by archiving a confirmation note
// next to the purchase order's proof-of-delivery reference
type Recorder struct {
	storage port.FileStorage
	folders port.FolderManager
	logger  *zap.Logger
}

// NewRecorder creates a delivery confirmation recorder
func NewRecorder(storage port.FileStorage, folders port.FolderManager, logger *zap.Logger) port.DeliveryService {
	return &Recorder{
		storage: storage,
		folders: folders,
		logger:  logger,
	}
}

// RecordConfirmation archives the delivery confirmation for a purchase order
func (r *Recorder) RecordConfirmation(ctx context.Context, poID int64, proofOfDelivery string, receivedBy string) error {
	if proofOfDelivery == "" {
		return fmt.Errorf("purchase order %d has no proof of delivery", poID)
	}

	folder, err := r.folders.CreateFolder(ctx, fmt.Sprintf("po-%d", poID))
	if err != nil {
		return fmt.Errorf("failed to create delivery folder: %w", err)
	}

	note := fmt.Sprintf("purchase_order: %d\nproof_of_delivery: %s\nreceived_by: %s\nconfirmed_at: %s\n",
		poID, proofOfDelivery, receivedBy, time.Now().Format(time.RFC3339))

	path := fmt.Sprintf("deliveries/po-%d/confirmation.txt", poID)
	if err := r.storage.Save(ctx, path, []byte(note)); err != nil {
		return fmt.Errorf("failed to archive delivery confirmation: %w", err)
	}

	r.logger.Info("Delivery confirmation recorded",
		zap.Int64("po_id", poID),
		zap.String("received_by", receivedBy),
		zap.String("folder", folder))
	return nil
}
