package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pec-ai/auth/internal/account"
	"github.com/pec-ai/auth/internal/otp"
	"github.com/pec-ai/auth/internal/sms"
	"github.com/rs/zerolog/log"
)

type Claims struct {
	UserID string `json:"userId"`
	Phone  string `json:"phone"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type Service struct {
	accountService *account.Service
	otpService     *otp.Service
	sender         sms.Sender
	config         Config
}

func NewService(accountService *account.Service, otpService *otp.Service, sender sms.Sender, config Config) *Service {
	return &Service{
		accountService: accountService,
		otpService:     otpService,
		sender:         sender,
		config:         config,
	}
}

// Register creates a user for the phone number from either a password or a
// live SMS code. Exactly one credential is required; a supplied password
// wins and skips SMS verification.
func (s *Service) Register(ctx context.Context, phone, password, code string) (*TokenPair, *account.User, error) {
	if _, err := s.accountService.GetUserByPhone(ctx, phone); err == nil {
		return nil, nil, account.ErrPhoneExists
	} else if !errors.Is(err, account.ErrUserNotFound) {
		return nil, nil, err
	}

	var passwordHash string
	switch {
	case password != "":
		if len(password) < minPasswordChars {
			return nil, nil, ErrWeakPassword
		}
		hash, err := s.accountService.HashPassword(password)
		if err != nil {
			return nil, nil, err
		}
		passwordHash = hash
	case code != "":
		if err := s.otpService.Verify(ctx, phone, code); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, ErrMissingCredential
	}

	user, err := s.accountService.CreateUser(ctx, phone, passwordHash)
	if err != nil {
		return nil, nil, err
	}

	tokenPair, err := s.IssueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return tokenPair, user, nil
}

// Login authenticates an existing user. A supplied password takes
// precedence over an SMS code.
func (s *Service) Login(ctx context.Context, phone, password, code string) (*TokenPair, *account.User, error) {
	user, err := s.accountService.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case password != "":
		if !user.HasPassword() {
			return nil, nil, ErrPasswordNotSet
		}
		if !s.accountService.CheckPassword(password, user.PasswordHash) {
			return nil, nil, ErrInvalidCredentials
		}
	case code != "":
		if err := s.otpService.Verify(ctx, phone, code); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, ErrMissingCredential
	}

	tokenPair, err := s.IssueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return tokenPair, user, nil
}

// Refresh rotates a refresh token into a fresh access/refresh pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *account.User, error) {
	claims, err := s.ParseToken(refreshToken, "refresh")
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.accountService.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	tokenPair, err := s.IssueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return tokenPair, user, nil
}

// Identify resolves an access token to its claims. The transport layer maps
// a failure to 401.
func (s *Service) Identify(ctx context.Context, accessToken string) (*Claims, error) {
	return s.ParseToken(accessToken, "access")
}

// SendCode issues a fresh one-time code and hands it to the delivery
// collaborator. Delivery failures are logged, not surfaced. The returned
// plaintext code must only reach a response body when the expose_codes
// development flag is on.
func (s *Service) SendCode(ctx context.Context, phone string, purpose otp.Purpose) (string, time.Duration, error) {
	code, err := s.otpService.Issue(ctx, phone, purpose)
	if err != nil {
		return "", 0, err
	}

	if err := s.sender.Send(ctx, phone, code, purpose); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("sms delivery failed")
	}
	return code, s.otpService.TTL(), nil
}

func (s *Service) IssueTokenPair(user *account.User) (*TokenPair, error) {
	access, err := s.signToken(user, "access", s.config.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(user, "refresh", s.config.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// ParseToken verifies signature, expiry, and the type discriminator. Every
// failure collapses to ErrInvalidToken so callers cannot probe which check
// rejected the token.
func (s *Service) ParseToken(tokenString string, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != expectedType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) signToken(user *account.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Phone:  user.Phone,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", errors.New("failed to sign token")
	}
	return signedToken, nil
}
