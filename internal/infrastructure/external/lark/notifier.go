package lark

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/ningi265/hrms-client-sub001/internal/application/port"
)

// Notifier implements port.NotificationService over Lark messaging.
// Recipient addresses are Lark user emails; failures are returned to the
// side-effect dispatcher, which owns retry.
type Notifier struct {
	sdk    *SDKClient
	logger *zap.Logger
}

// NewNotifier creates a Lark-backed notification service
func NewNotifier(sdk *SDKClient, logger *zap.Logger) port.NotificationService {
	return &Notifier{
		sdk:    sdk,
		logger: logger,
	}
}

// Send delivers the message to every recipient. The first delivery failure
// aborts and is reported; already-notified recipients may receive a duplicate
// on retry, which Lark users tolerate better than a missed notification.
func (n *Notifier) Send(ctx context.Context, recipients []port.Recipient, subject, body string, attachments ...string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	content, err := textContent(subject, body, attachments)
	if err != nil {
		return err
	}

	for _, rcpt := range recipients {
		if rcpt.Address == "" {
			continue
		}

		req := larkim.NewCreateMessageReqBuilder().
			ReceiveIdType(receiveIDType(rcpt.Address)).
			Body(larkim.NewCreateMessageReqBodyBuilder().
				ReceiveId(rcpt.Address).
				MsgType("text").
				Content(content).
				Build()).
			Build()

		resp, err := n.sdk.GetClient().Im.Message.Create(ctx, req)
		if err != nil {
			n.logger.Error("Failed to send notification",
				zap.String("recipient", rcpt.Address),
				zap.Error(err))
			return fmt.Errorf("failed to send notification to %s: %w", rcpt.Address, err)
		}
		if !resp.Success() {
			n.logger.Error("Lark API returned failure",
				zap.String("recipient", rcpt.Address),
				zap.Int("code", resp.Code),
				zap.String("msg", resp.Msg))
			return fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
		}

		n.logger.Info("Notification sent",
			zap.String("recipient", rcpt.Address),
			zap.String("role", rcpt.Role.String()),
			zap.String("subject", subject))
	}

	return nil
}

// textContent builds the Lark text message payload. json.Marshal handles
// escaping of the user-provided subject and body.
func textContent(subject, body string, attachments []string) (string, error) {
	text := subject + "\n" + body
	if len(attachments) > 0 {
		text += "\nAttachments: " + strings.Join(attachments, ", ")
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("failed to build message content: %w", err)
	}
	return string(payload), nil
}

// receiveIDType picks the Lark receive_id_type for an address. Email-shaped
// addresses route by email; everything else is treated as an open_id.
func receiveIDType(address string) string {
	if strings.Contains(address, "@") {
		return "email"
	}
	return "open_id"
}
