package lark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Messenger delivers workflow notifications over Lark IM. It implements
// the engine's delivery channel port: it is handed recipients and text,
// nothing about workflow rules.
type Messenger struct {
	client *Client
	logger *zap.Logger
}

// NewMessenger creates a new messenger
func NewMessenger(client *Client, logger *zap.Logger) *Messenger {
	return &Messenger{
		client: client,
		logger: logger,
	}
}

// Send delivers the message to every recipient. Per-recipient failures
// are collected so one bad id does not starve the rest of the cohort.
func (m *Messenger) Send(ctx context.Context, recipientIDs []string, message, recordCode string) error {
	content, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("[%s] %s", recordCode, message),
	})
	if err != nil {
		return fmt.Errorf("marshal message content: %w", err)
	}

	var errs []error
	for _, recipientID := range recipientIDs {
		if err := m.sendOne(ctx, recipientID, string(content)); err != nil {
			m.logger.Error("Failed to deliver notification",
				zap.String("recipient_id", recipientID),
				zap.String("record_code", recordCode),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Messenger) sendOne(ctx context.Context, recipientID, content string) error {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeUserId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(recipientID).
			MsgType(larkim.MsgTypeText).
			Content(content).
			Build()).
		Build()

	resp, err := m.client.client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	return nil
}
