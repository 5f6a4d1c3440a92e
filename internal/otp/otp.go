package otp

import (
	"errors"
	"time"
)

const (
	// CodeLength is the fixed width of a one-time code.
	CodeLength = 6
	// MaxAttempts bounds wrong guesses per issued code. Once reached the
	// code is unusable until reissued.
	MaxAttempts = 5
	// DefaultTTL is used when no TTL is configured.
	DefaultTTL = 5 * time.Minute
)

var (
	ErrNotFound      = errors.New("sms code not found")
	ErrInvalidFormat = errors.New("sms code must be 6 digits")
	ErrLocked        = errors.New("sms code locked, too many attempts")
	ErrExpired       = errors.New("sms code expired")
	ErrMismatch      = errors.New("sms code mismatch")
)

// Purpose tags what flow requested the code. It is informational and not
// enforced at verification time.
type Purpose string

const (
	PurposeLogin    Purpose = "login"
	PurposeRegister Purpose = "register"
	PurposeReset    Purpose = "reset"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeLogin, PurposeRegister, PurposeReset:
		return true
	}
	return false
}

// Code is the single live one-time-code record for a phone number.
// Issuing a new code replaces the record wholesale.
type Code struct {
	Phone        string    `json:"phone"`
	Code         string    `json:"-"`
	Purpose      Purpose   `json:"purpose"`
	ExpiresAt    time.Time `json:"expiresAt"`
	AttemptCount int       `json:"attemptCount"`
	CreatedAt    time.Time `json:"createdAt"`
}
