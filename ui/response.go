package ui

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/torwatch/backoffice/core"
	"github.com/torwatch/backoffice/session"
)

// errBadRequest marks request input the API cannot parse
var errBadRequest = errors.New("bad request")

// errReadOnly is returned for writes to read-only resources
var errReadOnly = errors.New("resource is read-only")

type errorResponse struct {
	Error string `json:"error"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type listResponse struct {
	Data    []core.Record `json:"data"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"perPage"`
	HasMore bool          `json:"hasMore"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps an adapter, session or request error to an HTTP status
func statusFor(err error) int {
	var transportErr *core.TransportError
	var authErr *session.AuthError

	switch {
	case errors.Is(err, core.ErrUnknownResource):
		return http.StatusNotFound
	case errors.As(err, &authErr),
		errors.Is(err, session.ErrNoSession),
		errors.Is(err, session.ErrNoIdentity):
		return http.StatusUnauthorized
	case core.StatusCode(err) != 0:
		if status := core.StatusCode(err); status >= 400 && status <= 599 {
			return status
		}
		return http.StatusBadGateway
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrInvalidEnvelope):
		return http.StatusBadGateway
	case errors.Is(err, errBadRequest), errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errReadOnly):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// writeError writes {"error": msg} with the status mapped from err
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()

	var backendErr *core.BackendError
	if errors.As(err, &backendErr) && backendErr.Message != "" {
		message = backendErr.Message
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "unhandled error", "error", err)
		message = http.StatusText(status)
	}

	writeJSON(w, status, errorResponse{Error: message})
}
