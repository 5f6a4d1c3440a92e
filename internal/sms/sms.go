package sms

import (
	"context"

	"github.com/pec-ai/auth/internal/otp"
	"github.com/rs/zerolog/log"
)

// Sender delivers a one-time code to a phone number. Delivery is
// fire-and-forget from the caller's point of view.
type Sender interface {
	Send(ctx context.Context, phone, code string, purpose otp.Purpose) error
}

// LogSender writes the delivery to the log instead of a carrier. Used in
// development and tests; a real gateway implements Sender the same way.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) Send(ctx context.Context, phone, code string, purpose otp.Purpose) error {
	log.Info().
		Str("phone", phone).
		Str("purpose", string(purpose)).
		Msg("[SMS] code delivery")
	return nil
}
