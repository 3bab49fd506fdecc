package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"blogssom/internal/models"
)

// ResetTokenTTL is how long a password-reset token stays redeemable.
const ResetTokenTTL = 10 * time.Minute

// changedAtSkew backdates password-changed-at so a token issued in the
// same request as the password mutation is not judged stale.
const changedAtSkew = time.Second

// PasswordManager owns password hashing and the reset-token lifecycle.
// Bcrypt runs under a bounded semaphore so a burst of logins cannot
// occupy every scheduler thread with hashing work.
type PasswordManager struct {
	cost int
	sem  *semaphore.Weighted
}

func NewPasswordManager(cost int, maxConcurrent int64) *PasswordManager {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &PasswordManager{cost: cost, sem: semaphore.NewWeighted(maxConcurrent)}
}

func (m *PasswordManager) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer m.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), m.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares via bcrypt's own constant-time comparison.
func (m *PasswordManager) Verify(ctx context.Context, plaintext, hash string) bool {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer m.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// MarkPasswordChanged stamps the account one second in the past. Callers
// skip this on account creation; a new account has no tokens to invalidate.
func (m *PasswordManager) MarkPasswordChanged(u *models.User) {
	changed := time.Now().UTC().Add(-changedAtSkew)
	u.PasswordChangedAt = &changed
}

// IsTokenStale reports whether a token issued at issuedAt predates the
// account's last password change, at one-second granularity.
func (m *PasswordManager) IsTokenStale(u *models.User, issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

// NewResetToken generates a reset token, stores its hash and expiry on the
// account, and returns the plaintext for one-time out-of-band delivery.
// The caller persists the fields and must clear them again if delivery
// fails.
func (m *PasswordManager) NewResetToken(u *models.User) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	plaintext := hex.EncodeToString(b)

	hash := HashResetToken(plaintext)
	expires := time.Now().UTC().Add(ResetTokenTTL)
	u.ResetTokenHash = &hash
	u.ResetTokenExpiresAt = &expires

	return plaintext, nil
}

// HashResetToken is the one-way form under which reset tokens live at
// rest; the plaintext is never stored.
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
