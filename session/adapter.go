// Package session implements login state for the admin UI against the backend's cookie session.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/torwatch/backoffice/core"
)

const defaultCookieName = "token"

// Adapter tracks whether the user is logged in.
// The backend owns the real session; Adapter only persists a marker after a successful login.
// Markers are keyed by the client id carried in the context (see WithClientID).
type Adapter struct {
	loginURL   string
	store      Store
	httpClient *http.Client
	cookieName string
	logger     *slog.Logger
	now        func() time.Time
}

var _ core.TokenSource = (*Adapter)(nil)

// Option configures the Adapter
type Option func(*Adapter)

// WithHTTPClient replaces the HTTP client used for login
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithTimeout sets the login request timeout on a copy of the configured client
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		c := *a.httpClient
		c.Timeout = d
		a.httpClient = &c
	}
}

// WithCookieName sets the name of the backend session cookie
func WithCookieName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.cookieName = name
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter creates a session adapter for the backend at baseURL, persisting into store
func NewAdapter(baseURL string, store Store, opts ...Option) (*Adapter, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", baseURL)
	}

	a := &Adapter{
		loginURL:   u.JoinPath("login").String(),
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cookieName: defaultCookieName,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Login authenticates against the backend and persists the session marker.
// On failure the persisted marker is left unchanged.
func (a *Adapter) Login(ctx context.Context, creds Credentials) error {
	body, err := json.Marshal(map[string]string{
		"email":    creds.Username,
		"password": creds.Password,
	})
	if err != nil {
		return &AuthError{Username: creds.Username, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.loginURL, bytes.NewReader(body))
	if err != nil {
		return &AuthError{Username: creds.Username, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &AuthError{
			Username: creds.Username,
			Err:      &core.TransportError{Method: http.MethodPost, URL: a.loginURL, Err: err},
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{
			Username: creds.Username,
			Err:      &core.TransportError{Method: http.MethodPost, URL: a.loginURL, Err: err},
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.logger.InfoContext(ctx, "login rejected", "username", creds.Username, "status", resp.StatusCode)
		return &AuthError{
			Username: creds.Username,
			Err: &core.BackendError{
				Method:  http.MethodPost,
				URL:     a.loginURL,
				Status:  resp.StatusCode,
				Message: backendMessage(respBody, resp.StatusCode),
			},
		}
	}

	var user loginResponse
	if err := decodeJSON(respBody, &user); err != nil {
		return &AuthError{Username: creds.Username, Err: fmt.Errorf("decode login response: %w", err)}
	}
	if err := user.validate(); err != nil {
		return &AuthError{Username: creds.Username, Err: err}
	}

	marker := &Marker{
		ID:    user.ID,
		Name:  *user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
	for _, c := range resp.Cookies() {
		if c.Name == a.cookieName && c.Value != "" {
			marker.Token = core.SessionToken(c.Value)
		}
	}
	if !marker.Token.IsZero() {
		expiresAt, role, err := tokenClaims(marker.Token)
		if err != nil {
			a.logger.DebugContext(ctx, "session token is not a readable JWT", "error", err)
		} else {
			marker.ExpiresAt = expiresAt
			if marker.Role == "" {
				marker.Role = role
			}
		}
	} else {
		a.logger.WarnContext(ctx, "login response carried no session cookie", "cookie", a.cookieName)
	}

	data, err := encodeMarker(marker)
	if err != nil {
		return &AuthError{Username: creds.Username, Err: err}
	}
	if err := a.store.Save(ctx, markerKey(ctx), data); err != nil {
		return &AuthError{Username: creds.Username, Err: fmt.Errorf("persist session: %w", err)}
	}

	a.logger.InfoContext(ctx, "logged in", "username", creds.Username, "id", ID.GetString(marker.ID))
	return nil
}

// CheckSession reports whether a marker is persisted for the caller. It never contacts the backend.
func (a *Adapter) CheckSession(ctx context.Context) error {
	if _, err := a.store.Load(ctx, markerKey(ctx)); err != nil {
		if !errors.Is(err, ErrMarkerNotFound) {
			a.logger.WarnContext(ctx, "session store load failed", "error", err)
		}
		return ErrNoSession
	}
	return nil
}

// GetIdentity returns the identity recorded at login
func (a *Adapter) GetIdentity(ctx context.Context) (UserIdentity, error) {
	marker, err := a.Marker(ctx)
	if err != nil {
		return UserIdentity{}, fmt.Errorf("%w: %v", ErrNoIdentity, err)
	}
	return marker.Identity(), nil
}

// Marker returns the persisted session marker
func (a *Adapter) Marker(ctx context.Context) (*Marker, error) {
	data, err := a.store.Load(ctx, markerKey(ctx))
	if err != nil {
		return nil, err
	}
	return decodeMarker(data)
}

// Logout clears the caller's persisted marker. It always succeeds.
func (a *Adapter) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx, markerKey(ctx)); err != nil {
		a.logger.WarnContext(ctx, "session store clear failed", "error", err)
	}
	return nil
}

// GetPermissions reports no permission information
func (a *Adapter) GetPermissions(ctx context.Context, params any) (any, error) {
	return nil, nil
}

// CheckError never forces a logout, whatever the error
func (a *Adapter) CheckError(ctx context.Context, err error) error {
	return nil
}

// Token returns the persisted session token, empty when logged out
func (a *Adapter) Token(ctx context.Context) (core.SessionToken, error) {
	marker, err := a.Marker(ctx)
	if errors.Is(err, ErrMarkerNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if marker.IsExpired(a.now()) {
		a.logger.DebugContext(ctx, "session token past its expiry", "expires_at", marker.ExpiresAt)
	}
	return marker.Token, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func backendMessage(body []byte, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return http.StatusText(status)
}
