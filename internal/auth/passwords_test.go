package auth

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"blogssom/internal/models"
)

func testManager() *PasswordManager {
	return NewPasswordManager(bcrypt.MinCost, 2)
}

func TestHashVerify(t *testing.T) {
	m := testManager()
	ctx := context.Background()

	hash, err := m.Hash(ctx, "secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("hash must not equal plaintext")
	}

	if !m.Verify(ctx, "secret123", hash) {
		t.Fatal("expected correct password to verify")
	}
	if m.Verify(ctx, "secret124", hash) {
		t.Fatal("expected wrong password to fail")
	}
}

func TestMarkPasswordChangedBackdates(t *testing.T) {
	m := testManager()
	u := &models.User{}

	before := time.Now().UTC()
	m.MarkPasswordChanged(u)

	if u.PasswordChangedAt == nil {
		t.Fatal("expected PasswordChangedAt to be set")
	}
	if !u.PasswordChangedAt.Before(before) {
		t.Fatalf("expected changed-at %v to be before %v", u.PasswordChangedAt, before)
	}
}

func TestIsTokenStale(t *testing.T) {
	m := testManager()
	now := time.Now().UTC().Truncate(time.Second)

	u := &models.User{}
	if m.IsTokenStale(u, now.Add(-time.Hour)) {
		t.Fatal("account without a password change has no stale tokens")
	}

	changed := now
	u.PasswordChangedAt = &changed

	if !m.IsTokenStale(u, now.Add(-time.Second)) {
		t.Fatal("token issued before the change must be stale")
	}
	if m.IsTokenStale(u, now) {
		t.Fatal("token issued at the change instant must not be stale")
	}
	if m.IsTokenStale(u, now.Add(time.Second)) {
		t.Fatal("token issued after the change must not be stale")
	}
}

func TestTokenIssuedInSameRequestSurvivesChange(t *testing.T) {
	m := testManager()
	svc := NewTokenService("test-secret", time.Hour)

	u := &models.User{ID: "user-1"}
	m.MarkPasswordChanged(u)

	token, _, err := svc.Issue(u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if m.IsTokenStale(u, claims.IssuedAt) {
		t.Fatal("token issued alongside the password change must stay valid")
	}
}

func TestNewResetTokenStoresOnlyHash(t *testing.T) {
	m := testManager()
	u := &models.User{ID: "user-1"}

	plaintext, err := m.NewResetToken(u)
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if plaintext == "" {
		t.Fatal("expected plaintext token")
	}
	if u.ResetTokenHash == nil || u.ResetTokenExpiresAt == nil {
		t.Fatal("expected reset fields set on account")
	}
	if *u.ResetTokenHash == plaintext {
		t.Fatal("stored value must not be the plaintext")
	}
	if *u.ResetTokenHash != HashResetToken(plaintext) {
		t.Fatal("stored hash must match HashResetToken of the plaintext")
	}

	window := time.Until(*u.ResetTokenExpiresAt)
	if window < 9*time.Minute || window > 11*time.Minute {
		t.Fatalf("expected ~10 minute expiry window, got %v", window)
	}
}

func TestNewResetTokenIsUnique(t *testing.T) {
	m := testManager()

	a, err := m.NewResetToken(&models.User{ID: "a"})
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	b, err := m.NewResetToken(&models.User{ID: "b"})
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if a == b {
		t.Fatal("two reset tokens must not collide")
	}
}
