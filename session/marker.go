package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/torwatch/backoffice/core"
)

// Credentials are what the user types into the login form
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserIdentity is the identity shown for the logged-in user
type UserIdentity struct {
	ID       Identity `json:"id"`
	FullName string   `json:"fullName"`
}

// Marker is the persisted record of an authenticated session.
// Its fields mirror the backend's user object.
type Marker struct {
	ID        Identity          `json:"ID"`
	Name      string            `json:"Name"`
	Email     string            `json:"Email,omitempty"`
	Role      string            `json:"Role,omitempty"`
	Token     core.SessionToken `json:"token,omitempty"`
	ExpiresAt *time.Time        `json:"expiresAt,omitempty"`
}

// Identity returns the display identity held by the marker
func (m *Marker) Identity() UserIdentity {
	return UserIdentity{ID: m.ID, FullName: m.Name}
}

// IsExpired reports whether the session token has a known expiry in the past
func (m *Marker) IsExpired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// loginResponse is the user object returned by the backend on login
type loginResponse struct {
	ID    Identity `json:"ID"`
	Name  *string  `json:"Name"`
	Email string   `json:"Email"`
	Role  string   `json:"Role"`
}

func (r *loginResponse) validate() error {
	if r.ID == nil {
		return errors.New("login response has no ID")
	}
	if r.Name == nil {
		return errors.New("login response has no Name")
	}
	return nil
}

func encodeMarker(m *Marker) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode session marker: %w", err)
	}
	return data, nil
}

func decodeMarker(data []byte) (*Marker, error) {
	var m Marker
	if err := decodeJSON(data, &m); err != nil {
		return nil, fmt.Errorf("decode session marker: %w", err)
	}
	if m.ID == nil {
		return nil, errors.New("session marker has no ID")
	}
	return &m, nil
}

// tokenClaims reads expiry and role from a JWT session token without verifying it.
// The signing key belongs to the backend; the claims are informational only.
func tokenClaims(token core.SessionToken) (expiresAt *time.Time, role string, err error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(string(token), claims); err != nil {
		return nil, "", err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, "", err
	}
	if exp != nil {
		t := exp.Time.UTC()
		expiresAt = &t
	}
	if r, ok := claims["role"].(string); ok {
		role = r
	}
	return expiresAt, role, nil
}
