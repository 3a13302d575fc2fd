// AngelaMos | 2026
// cookie.go

package auth

import (
	"net/http"
	"time"

	"github.com/carterperez-dev/templates/accounts-api/internal/middleware"
)

const (
	loggedOutValue = "loggedout"
	loggedOutTTL   = 10 * time.Second
)

type CookieConfig struct {
	MaxAge time.Duration
	Secure bool
}

func (c CookieConfig) session(token string, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(c.MaxAge),
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// loggedOut replaces the session cookie with a placeholder that expires
// almost immediately. Tokens already handed out stay valid until they
// expire.
func (c CookieConfig) loggedOut(now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    loggedOutValue,
		Path:     "/",
		Expires:  now.Add(loggedOutTTL),
		MaxAge:   int(loggedOutTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
