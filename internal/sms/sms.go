// Package sms delivers verification codes to phone numbers.
package sms

import (
	"classcrew/internal/config"
	"context"
	"fmt"
	"time"
)

type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

func messageText(code string) string {
	return fmt.Sprintf("[ClassCrew] 인증번호 [%s]를 입력해주세요. (15분간 유효)", code)
}

// NewSender picks the provider configured by SMS_PROVIDER.
func NewSender(cfg *config.Config) (Sender, error) {
	switch cfg.SMSProvider {
	case "console":
		return NewConsoleSender(), nil
	case "http":
		timeout, err := time.ParseDuration(cfg.SMSTimeout)
		if err != nil {
			return nil, fmt.Errorf("sms timeout: %w", err)
		}
		return NewHTTPSender(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSender, timeout), nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.SMSProvider)
	}
}
