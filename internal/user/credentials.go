// AngelaMos | 2026
// credentials.go

package user

import (
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// ValidateCredentials enforces the write-time password rules. The
// confirmation is checked here and then discarded.
func ValidateCredentials(password, confirm string) error {
	if password == "" {
		return core.ValidationError("Please provide a password")
	}

	if len(password) < MinPasswordLength {
		return core.ValidationError(fmt.Sprintf(
			"password must be at least %d characters", MinPasswordLength,
		))
	}

	if len(password) > MaxPasswordLength {
		return core.ValidationError(fmt.Sprintf(
			"password must be at most %d characters", MaxPasswordLength,
		))
	}

	if confirm == "" {
		return core.ValidationError("Please confirm your password")
	}

	if password != confirm {
		return core.ValidationError("Passwords are not the same")
	}

	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
