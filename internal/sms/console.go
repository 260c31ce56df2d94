package sms

import (
	"classcrew/internal/logger"
	"context"

	"go.uber.org/zap"
)

// ConsoleSender writes the message to the log instead of a phone. Dev only.
type ConsoleSender struct{}

func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

func (ConsoleSender) Send(ctx context.Context, phone, code string) error {
	logger.WithCtx(ctx).Info("SMS (console)",
		zap.String("to", phone),
		zap.String("text", messageText(code)),
	)
	return nil
}
