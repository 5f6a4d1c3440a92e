package account

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPhoneExists     = errors.New("phone already registered")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

type User struct {
	ID           string    `json:"id"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasPassword reports whether the account can be authenticated with a
// password. Accounts created through SMS-only registration have none.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
