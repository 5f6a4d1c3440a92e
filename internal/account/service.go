package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates beyond 72 bytes, so longer passwords are
// rejected before hashing rather than verified against a truncated prefix.
const maxPasswordBytes = 72

type Storer interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)
}

type Service struct {
	store Storer
}

func NewService(store Storer) *Service {
	return &Service{store: store}
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *Service) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	return s.store.GetUserByPhone(ctx, phone)
}

// CreateUser inserts a new active user. passwordHash may be empty for
// accounts registered through an SMS code.
func (s *Service) CreateUser(ctx context.Context, phone, passwordHash string) (*User, error) {
	user := &User{
		ID:           uuid.NewString(),
		Phone:        phone,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	return s.store.CreateUser(ctx, user)
}

// HashPassword produces the bcrypt digest stored on the user record.
func (s *Service) HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
