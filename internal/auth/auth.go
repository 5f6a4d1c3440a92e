package auth

import (
	"errors"
	"time"
)

var (
	ErrMissingCredential  = errors.New("password or sms code required")
	ErrWeakPassword       = errors.New("password too short (min 6 chars)")
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrPasswordNotSet     = errors.New("password login not set")
	ErrInvalidToken       = errors.New("invalid token")
)

const minPasswordChars = 6

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}
