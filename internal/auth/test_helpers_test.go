package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/pec-ai/auth/internal/account"
	accountstore "github.com/pec-ai/auth/internal/account/store"
	"github.com/pec-ai/auth/internal/auth"
	"github.com/pec-ai/auth/internal/otp"
	otpstore "github.com/pec-ai/auth/internal/otp/store"
	"github.com/pec-ai/auth/internal/platform/database"
	"github.com/pec-ai/auth/internal/sms"
)

const (
	testPhone    = "+15551234567"
	testPassword = "member-test-password"
)

func setupAuthTestService(t *testing.T) (*auth.Service, *otp.Service, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	accountSvc := account.NewService(accountstore.NewStore(db))
	otpSvc := otp.NewService(otpstore.NewStore(db), 5*time.Minute)
	authSvc := auth.NewService(accountSvc, otpSvc, sms.NewLogSender(), auth.Config{
		Secret:     "test-secret-key",
		Issuer:     "pec-auth-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})

	return authSvc, otpSvc, db
}

// newServiceWithSecret builds a token-only service for signing tokens with
// a different secret. The storage collaborators are never touched.
func newServiceWithSecret(t *testing.T, secret string) *auth.Service {
	t.Helper()

	return auth.NewService(nil, nil, sms.NewLogSender(), auth.Config{
		Secret:     secret,
		Issuer:     "pec-auth-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
}

func registerWithPassword(t *testing.T, authSvc *auth.Service, phone, password string) *account.User {
	t.Helper()

	_, user, err := authSvc.Register(context.Background(), phone, password, "")
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	return user
}

func issueCode(t *testing.T, otpSvc *otp.Service, phone string, purpose otp.Purpose) string {
	t.Helper()

	code, err := otpSvc.Issue(context.Background(), phone, purpose)
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}
	return code
}
