package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

type Storer interface {
	Get(ctx context.Context, phone string) (*Code, error)
	Upsert(ctx context.Context, code *Code) error
	IncrementAttempts(ctx context.Context, phone string) error
	Delete(ctx context.Context, phone string) error
}

type Service struct {
	store Storer
	ttl   time.Duration

	// one mutex per phone number so concurrent verifies against the same
	// code serialize and the attempt counter is never under-counted
	locks sync.Map
}

func NewService(store Storer, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{store: store, ttl: ttl}
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue generates a fresh code for the phone number, replacing any prior
// record and resetting the attempt counter. The plaintext code is returned
// for out-of-band delivery.
func (s *Service) Issue(ctx context.Context, phone string, purpose Purpose) (string, error) {
	unlock := s.lock(phone)
	defer unlock()

	value, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	now := time.Now()
	record := &Code{
		Phone:        phone,
		Code:         value,
		Purpose:      purpose,
		ExpiresAt:    now.Add(s.ttl),
		AttemptCount: 0,
		CreatedAt:    now,
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return "", err
	}
	return value, nil
}

// Verify checks a submitted code against the live record for the phone
// number. A match consumes the record; a mismatch against a live, unlocked,
// unexpired code costs one attempt. Malformed, locked, and expired
// submissions never touch the counter.
func (s *Service) Verify(ctx context.Context, phone, submitted string) error {
	unlock := s.lock(phone)
	defer unlock()

	record, err := s.store.Get(ctx, phone)
	if err != nil {
		return err
	}

	if !validFormat(submitted) {
		return ErrInvalidFormat
	}
	if record.AttemptCount >= MaxAttempts {
		return ErrLocked
	}
	if time.Now().After(record.ExpiresAt) {
		return ErrExpired
	}
	if record.Code != submitted {
		if err := s.store.IncrementAttempts(ctx, phone); err != nil {
			return err
		}
		return ErrMismatch
	}

	return s.store.Delete(ctx, phone)
}

func (s *Service) lock(phone string) func() {
	v, _ := s.locks.LoadOrStore(phone, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func validFormat(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
