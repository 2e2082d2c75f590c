// Package ui serves the JSON admin API consumed by the admin frontend.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/torwatch/backoffice/core"
	"github.com/torwatch/backoffice/session"
)

// SessionManager is the login state the API relies on
type SessionManager interface {
	Login(ctx context.Context, creds session.Credentials) error
	CheckSession(ctx context.Context) error
	GetIdentity(ctx context.Context) (session.UserIdentity, error)
	Logout(ctx context.Context) error
}

// Options configures the admin API handler
type Options struct {
	// CORSOrigins lists the exact origins allowed to call the API with credentials.
	// Empty disables CORS entirely.
	CORSOrigins []string

	RequestTimeout time.Duration
	Logger         *slog.Logger

	// CookieSecure marks the session cookie Secure; set it when served over HTTPS
	CookieSecure bool
}

// Handler returns an HTTP handler for the admin API
func Handler(bo *core.BackOffice, sessions SessionManager, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookies := sessionCookies{secure: opts.CookieSecure}
	handler := &BackOfficeHandler{bo: bo, sessions: sessions, cookies: cookies, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(CORS(opts.CORSOrigins))
	}
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Authentication routes
	r.Post("/login", handler.loginHandler)
	r.Post("/logout", handler.logoutHandler)
	r.Get("/identity", handler.identityHandler)
	r.Get("/resources", handler.resourcesHandler)
	r.With(handler.resolveResource).Get("/resources/{resource}", handler.resourceHandler)

	r.Route("/api", func(api chi.Router) {
		api.Use(requireSession(sessions, cookies))

		api.Route("/{resource}", func(res chi.Router) {
			res.Use(handler.resolveResource)

			res.Get("/", handler.listHandler)
			res.Post("/", handler.createHandler)
			res.Get("/{id}", handler.getOneHandler)
			res.Put("/{id}", handler.updateHandler)
			res.Delete("/{id}", handler.deleteHandler)
		})
	})

	return r
}

// BackOfficeHandler wraps BackOffice to provide HTTP handler methods
type BackOfficeHandler struct {
	bo       *core.BackOffice
	sessions SessionManager
	cookies  sessionCookies
	logger   *slog.Logger
}

type resourceKey struct{}

// resolveResource loads the registered resource named in the URL into the request context
func (h *BackOfficeHandler) resolveResource(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "resource")
		name, err := core.ParseResourceName(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resource, exists := h.bo.GetResource(name)
		if !exists {
			writeError(w, r, &core.UnknownResourceError{Name: raw})
			return
		}
		ctx := context.WithValue(r.Context(), resourceKey{}, resource)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func resourceFromContext(ctx context.Context) *core.Resource {
	resource, _ := ctx.Value(resourceKey{}).(*core.Resource)
	return resource
}

// listHandler serves GET /api/{resource}
func (h *BackOfficeHandler) listHandler(w http.ResponseWriter, r *http.Request) {
	resource := resourceFromContext(r.Context())

	query, err := parseQueryFromRequest(r, h.bo.GetConfig().ItemsPerPage)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.bo.List(r.Context(), resource.Name, query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := result.Items
	if items == nil {
		items = []core.Record{}
	}
	for _, item := range items {
		h.stripWriteOnly(resource, item)
	}

	writeJSON(w, http.StatusOK, listResponse{
		Data:    items,
		Total:   result.Total,
		Page:    result.Query.Pagination.Page,
		PerPage: result.Query.Pagination.PerPage,
		HasMore: result.HasMore,
	})
}

// getOneHandler serves GET /api/{resource}/{id}
func (h *BackOfficeHandler) getOneHandler(w http.ResponseWriter, r *http.Request) {
	resource := resourceFromContext(r.Context())

	record, err := h.bo.GetOne(r.Context(), resource.Name, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Data: h.stripWriteOnly(resource, record)})
}

// createHandler serves POST /api/{resource}
func (h *BackOfficeHandler) createHandler(w http.ResponseWriter, r *http.Request) {
	resource := resourceFromContext(r.Context())
	if resource.ReadOnly {
		writeError(w, r, fmt.Errorf("cannot create %s: %w", resource.DisplayName, errReadOnly))
		return
	}

	data, err := decodeRecord(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.bo.Create(r.Context(), resource.Name, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "record created", append(actor(r.Context()), "resource", resource.Name.String(), "id", record[core.IDField])...)
	writeJSON(w, http.StatusCreated, dataResponse{Data: h.stripWriteOnly(resource, record)})
}

// updateHandler serves PUT /api/{resource}/{id}
func (h *BackOfficeHandler) updateHandler(w http.ResponseWriter, r *http.Request) {
	resource := resourceFromContext(r.Context())
	if resource.ReadOnly {
		writeError(w, r, fmt.Errorf("cannot update %s: %w", resource.DisplayName, errReadOnly))
		return
	}

	data, err := decodeRecord(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.bo.Update(r.Context(), resource.Name, id, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "record updated", append(actor(r.Context()), "resource", resource.Name.String(), "id", id)...)
	writeJSON(w, http.StatusOK, dataResponse{Data: h.stripWriteOnly(resource, record)})
}

// deleteHandler serves DELETE /api/{resource}/{id}
func (h *BackOfficeHandler) deleteHandler(w http.ResponseWriter, r *http.Request) {
	resource := resourceFromContext(r.Context())
	if resource.ReadOnly {
		writeError(w, r, fmt.Errorf("cannot delete %s: %w", resource.DisplayName, errReadOnly))
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.bo.Delete(r.Context(), resource.Name, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "record deleted", append(actor(r.Context()), "resource", resource.Name.String(), "id", id)...)
	writeJSON(w, http.StatusOK, dataResponse{Data: h.stripWriteOnly(resource, record)})
}

// actor returns log attributes naming the logged-in user, if known
func actor(ctx context.Context) []any {
	identity, ok := session.IdentityFromContext(ctx)
	if !ok {
		return nil
	}
	return []any{"user_id", identity.ID, "user", identity.FullName}
}

// stripWriteOnly removes write-only fields such as passwords from a returned record
func (h *BackOfficeHandler) stripWriteOnly(resource *core.Resource, record core.Record) core.Record {
	for _, field := range resource.Fields {
		if field.WriteOnly {
			delete(record, field.Name)
		}
	}
	return record
}

// loginHandler serves POST /login
func (h *BackOfficeHandler) loginHandler(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := decodeJSONBody(r, &creds); err != nil {
		writeError(w, r, err)
		return
	}
	if creds.Username == "" || creds.Password == "" {
		writeError(w, r, fmt.Errorf("%w: username and password are required", errBadRequest))
		return
	}

	// every login gets a fresh client id, so a cookie planted before login is worthless
	clientID, err := newClientID()
	if err != nil {
		writeError(w, r, fmt.Errorf("generate session id: %w", err))
		return
	}
	if err := h.sessions.Login(session.WithClientID(r.Context(), clientID), creds); err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			h.logger.WarnContext(r.Context(), "login failed", "username", creds.Username, "error", err)
		}
		writeError(w, r, err)
		return
	}

	// drop the marker of the session this client held before
	if previous, ok := h.cookies.clientContext(r); ok {
		_ = h.sessions.Logout(previous)
	}

	http.SetCookie(w, h.cookies.create(clientID))
	w.WriteHeader(http.StatusNoContent)
}

// logoutHandler serves POST /logout; it always succeeds and only ends the caller's session
func (h *BackOfficeHandler) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if ctx, ok := h.cookies.clientContext(r); ok {
		_ = h.sessions.Logout(ctx)
	}
	http.SetCookie(w, h.cookies.expire())
	w.WriteHeader(http.StatusNoContent)
}

// identityHandler serves GET /identity
func (h *BackOfficeHandler) identityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, ok := h.cookies.clientContext(r)
	if !ok {
		writeError(w, r, session.ErrNoIdentity)
		return
	}
	identity, err := h.sessions.GetIdentity(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

// resourcesHandler serves GET /resources with the visible resources in registration order
func (h *BackOfficeHandler) resourcesHandler(w http.ResponseWriter, r *http.Request) {
	metas := make([]core.ResourceMeta, 0)
	for _, resource := range h.bo.GetResources() {
		if !resource.Hidden {
			metas = append(metas, resource.GetMeta())
		}
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: metas})
}

// resourceHandler serves GET /resources/{resource} with the full descriptor, fields included
func (h *BackOfficeHandler) resourceHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataResponse{Data: resourceFromContext(r.Context())})
}
