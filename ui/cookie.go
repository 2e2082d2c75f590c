package ui

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/torwatch/backoffice/session"
)

// SessionCookieName names the cookie that ties an admin API client to its session marker
const SessionCookieName = "backoffice_session"

// sessionCookies issues and reads the admin API session cookie
type sessionCookies struct {
	secure bool
}

// newClientID creates a cryptographically secure random client id
func newClientID() (string, error) {
	bytes := make([]byte, 32) // 32 bytes = 256 bits
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// clientContext scopes the request context to the client named by its session cookie.
// It reports false when the request carries no cookie.
func (c sessionCookies) clientContext(r *http.Request) (context.Context, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return r.Context(), false
	}
	return session.WithClientID(r.Context(), cookie.Value), true
}

// create returns the cookie handed to a client after login
func (c sessionCookies) create(clientID string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    clientID,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
}

// expire returns a cookie that deletes the client's session cookie
func (c sessionCookies) expire() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	}
}
