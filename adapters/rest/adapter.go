// Package rest implements core.Adapter against the tracked-IP REST backend.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/torwatch/backoffice/core"
)

const (
	// DefaultCookieName is the cookie the backend issues on login
	DefaultCookieName = "token"
	// DefaultTimeout bounds a single backend request
	DefaultTimeout = 30 * time.Second
)

// Adapter implements the core.Adapter interface over HTTP
type Adapter struct {
	baseURL    *url.URL
	httpClient *http.Client
	cookieName string
	limiter    *rate.Limiter
	log        *slog.Logger
	logger     *RequestLogger
}

var _ core.Adapter = (*Adapter)(nil)

// Option configures the Adapter
type Option func(*Adapter)

// WithHTTPClient replaces the HTTP client used for backend calls
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithTimeout sets the timeout on a copy of the configured HTTP client
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		c := *a.httpClient
		c.Timeout = d
		a.httpClient = &c
	}
}

// WithCookieName sets the name of the session cookie sent to the backend
func WithCookieName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.cookieName = name
		}
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(a *Adapter) {
		if rps <= 0 {
			a.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for warnings and request debug logs
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.log = logger
		}
	}
}

// WithDebug enables per-request debug logging
func WithDebug(enabled bool) Option {
	return func(a *Adapter) {
		a.logger.SetEnabled(enabled)
	}
}

// New creates an Adapter for the backend at baseURL
func New(baseURL string, opts ...Option) (*Adapter, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", baseURL)
	}

	a := &Adapter{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		cookieName: DefaultCookieName,
		log:        slog.Default(),
		logger:     NewRequestLogger(nil, false),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger.logger = a.log

	return a, nil
}

// SetDebugEnabled enables or disables request debug logging
func (a *Adapter) SetDebugEnabled(enabled bool) {
	a.logger.SetEnabled(enabled)
}

// listEnvelope is the backend's paginated response
type listEnvelope struct {
	Rows      []core.Record `json:"rows"`
	TotalRows int64         `json:"total_rows"`
}

// List retrieves one page of records
func (a *Adapter) List(ctx context.Context, token core.SessionToken, name core.ResourceName, query *core.Query) (*core.Result, error) {
	resource, err := core.LookupResource(name)
	if err != nil {
		return nil, err
	}

	params, effective, err := encodeListQuery(resource, query)
	if err != nil {
		return nil, err
	}

	target := a.resourceURL(resource.Path, "", params)
	var envelope listEnvelope
	if err := a.do(ctx, token, http.MethodGet, target, nil, &envelope); err != nil {
		return nil, err
	}

	if envelope.TotalRows < 0 {
		return nil, fmt.Errorf("%w: negative total_rows %d from %s", core.ErrInvalidEnvelope, envelope.TotalRows, target)
	}

	items := make([]core.Record, 0, len(envelope.Rows))
	for _, row := range envelope.Rows {
		if row == nil {
			row = core.Record{}
		}
		items = append(items, row.AliasID())
	}

	total := envelope.TotalRows
	if total < int64(len(items)) {
		a.log.WarnContext(ctx, "backend total_rows smaller than page",
			"resource", name.String(),
			"total_rows", total,
			"rows", len(items),
		)
		total = int64(len(items))
	}

	return &core.Result{
		Items:   items,
		Total:   total,
		HasMore: int64(effective.Pagination.Offset()+len(items)) < total,
		Query:   effective,
	}, nil
}

// GetOne retrieves a single record by its ID
func (a *Adapter) GetOne(ctx context.Context, token core.SessionToken, name core.ResourceName, id any) (core.Record, error) {
	target, err := a.recordURL(name, id)
	if err != nil {
		return nil, err
	}
	return a.doRecord(ctx, token, http.MethodGet, target, nil)
}

// Create creates a new record and returns the backend's copy of it
func (a *Adapter) Create(ctx context.Context, token core.SessionToken, name core.ResourceName, data core.Record) (core.Record, error) {
	resource, err := core.LookupResource(name)
	if err != nil {
		return nil, err
	}

	payload, err := resource.PrepareOutbound(data)
	if err != nil {
		return nil, err
	}

	return a.doRecord(ctx, token, http.MethodPost, a.resourceURL(resource.Path, "", nil), payload)
}

// Update replaces an existing record and returns the backend's copy of it
func (a *Adapter) Update(ctx context.Context, token core.SessionToken, name core.ResourceName, id any, data core.Record) (core.Record, error) {
	resource, err := core.LookupResource(name)
	if err != nil {
		return nil, err
	}

	payload, err := resource.PrepareOutbound(data)
	if err != nil {
		return nil, err
	}

	target, err := a.recordURL(name, id)
	if err != nil {
		return nil, err
	}
	return a.doRecord(ctx, token, http.MethodPut, target, payload)
}

// Delete deletes a record by ID and returns the deleted record
func (a *Adapter) Delete(ctx context.Context, token core.SessionToken, name core.ResourceName, id any) (core.Record, error) {
	target, err := a.recordURL(name, id)
	if err != nil {
		return nil, err
	}
	return a.doRecord(ctx, token, http.MethodDelete, target, nil)
}

// recordURL builds <base>/<path>/<id> for a resource
func (a *Adapter) recordURL(name core.ResourceName, id any) (string, error) {
	path, ok := name.Path()
	if !ok {
		return "", &core.UnknownResourceError{Name: string(name)}
	}
	segment, err := formatID(id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return a.resourceURL(path, segment, nil), nil
}

func (a *Adapter) resourceURL(path, id string, params url.Values) string {
	u := a.baseURL.JoinPath(path)
	if id != "" {
		// JoinPath takes escaped segments
		u = u.JoinPath(url.PathEscape(id))
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

// doRecord performs a single-record request and aliases the returned record
func (a *Adapter) doRecord(ctx context.Context, token core.SessionToken, method, target string, body any) (core.Record, error) {
	var record core.Record
	if err := a.do(ctx, token, method, target, body, &record); err != nil {
		return nil, err
	}
	if record == nil {
		record = core.Record{}
	}
	return record.AliasID(), nil
}

// do performs an HTTP request and decodes the JSON response into result
func (a *Adapter) do(ctx context.Context, token core.SessionToken, method, target string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !token.IsZero() {
		req.AddCookie(&http.Cookie{Name: a.cookieName, Value: string(token)})
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return &core.TransportError{Method: method, URL: target, Err: err}
		}
	}

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.LogError(ctx, method, target, requestID, time.Since(start), err)
		return &core.TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		a.logger.LogError(ctx, method, target, requestID, time.Since(start), err)
		return &core.TransportError{Method: method, URL: target, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	a.logger.LogResponse(ctx, method, target, requestID, resp.StatusCode, time.Since(start), len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &core.BackendError{
			Method:  method,
			URL:     target,
			Status:  resp.StatusCode,
			Message: errorMessage(respBody, resp.StatusCode),
		}
	}

	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, target, err)
	}
	return nil
}

// errorMessage extracts the backend's {"error": "..."} message, falling back
// to the raw body and then the status text
func errorMessage(body []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}
