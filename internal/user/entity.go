// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/middleware"
)

const (
	DefaultPhoto = "default.jpg"

	// ResetTokenTTL bounds how long a password reset link stays usable.
	ResetTokenTTL = 10 * time.Minute

	// passwordChangeSkew backdates passwordChangedAt so a token issued in
	// the same second as the change is still accepted.
	passwordChangeSkew = time.Second
)

type User struct {
	ID                     string     `db:"id"`
	Name                   string     `db:"name"`
	Email                  string     `db:"email"`
	Photo                  string     `db:"photo"`
	Role                   core.Role  `db:"role"`
	PasswordHash           string     `db:"password_hash"`
	PasswordChangedAt      *time.Time `db:"password_changed_at"`
	PasswordResetToken     *string    `db:"password_reset_token"`
	PasswordResetExpiresAt *time.Time `db:"password_reset_expires_at"`
	Active                 bool       `db:"active"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

// ChangedPasswordAfter reports whether the password changed after a token
// with the given issued-at second was minted. The change time keeps its
// sub-second part.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Before(*u.PasswordChangedAt)
}

// SetPassword stores a new hash. For an existing user it also records the
// change time; a new user keeps passwordChangedAt unset.
func (u *User) SetPassword(hash string, now time.Time) {
	u.PasswordHash = hash
	if u.ID != "" {
		changedAt := now.Add(-passwordChangeSkew)
		u.PasswordChangedAt = &changedAt
	}
}

// CreatePasswordResetToken stores the digest of a fresh one-time secret and
// returns the secret itself, which is never persisted.
func (u *User) CreatePasswordResetToken(now time.Time) (string, error) {
	token, err := core.GenerateResetToken()
	if err != nil {
		return "", err
	}

	digest := core.HashToken(token)
	expires := now.Add(ResetTokenTTL)

	u.PasswordResetToken = &digest
	u.PasswordResetExpiresAt = &expires

	return token, nil
}

func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = nil
	u.PasswordResetExpiresAt = nil
}

func (u *User) Identity() *middleware.Identity {
	return &middleware.Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Photo: u.Photo,
	}
}
