package otp_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pec-ai/auth/internal/otp"
	otpstore "github.com/pec-ai/auth/internal/otp/store"
	"github.com/pec-ai/auth/internal/platform/database"
)

const testPhone = "+15551234567"

func setupOTPTestService(t *testing.T) (*otp.Service, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	return otp.NewService(otpstore.NewStore(db), 5*time.Minute), db
}

// setupFileBackedService is used by tests that hit the store from multiple
// goroutines, where a shared on-disk database is needed.
func setupFileBackedService(t *testing.T) *otp.Service {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "otp_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	return otp.NewService(otpstore.NewStore(db), 5*time.Minute)
}

func issueCode(t *testing.T, svc *otp.Service, phone string) string {
	t.Helper()

	code, err := svc.Issue(context.Background(), phone, otp.PurposeLogin)
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}
	return code
}

// wrongCode returns a well-formed six digit code guaranteed not to match.
func wrongCode(code string) string {
	last := code[len(code)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	return code[:len(code)-1] + string(flipped)
}

func attemptCount(t *testing.T, db *sql.DB, phone string) int {
	t.Helper()

	var count int
	if err := db.QueryRowContext(
		context.Background(),
		"SELECT attempt_count FROM sms_codes WHERE phone = ?", phone,
	).Scan(&count); err != nil {
		t.Fatalf("read attempt_count: %v", err)
	}
	return count
}

func backdateExpiry(t *testing.T, db *sql.DB, phone string) {
	t.Helper()

	if _, err := db.ExecContext(
		context.Background(),
		"UPDATE sms_codes SET expires_at = ? WHERE phone = ?",
		time.Now().Add(-time.Minute), phone,
	); err != nil {
		t.Fatalf("backdate expiry: %v", err)
	}
}
