package ui

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/torwatch/backoffice/session"
)

// requireSession rejects requests with 401 unless they carry the session cookie
// of a client with a persisted session marker. Downstream handlers see a context
// scoped to that client; when the identity can be read it is added as well.
func requireSession(sessions SessionManager, cookies sessionCookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, ok := cookies.clientContext(r)
			if !ok {
				writeError(w, r, session.ErrNoSession)
				return
			}
			if err := sessions.CheckSession(ctx); err != nil {
				writeError(w, r, err)
				return
			}

			if identity, err := sessions.GetIdentity(ctx); err == nil {
				ctx = session.WithIdentity(ctx, identity)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORS allows the listed admin frontend origins to call the API with the session cookie.
// Wildcard entries are ignored; with no explicit origin left no cross-origin request is allowed.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		if origin != "" && !strings.Contains(origin, "*") {
			allowed[strings.ToLower(origin)] = true
		}
	}

	handler := cors.New(cors.Options{
		// an empty AllowedOrigins would mean any origin, so origins are matched here
		AllowOriginFunc: func(origin string) bool {
			return allowed[strings.ToLower(origin)]
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           3600,
	})

	return handler.Handler
}

// RequestLogger logs one line per request, at a level chosen by status
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", time.Since(started).Milliseconds(),
				"bytes", ww.BytesWritten(),
			}

			switch {
			case status >= 500:
				logger.ErrorContext(r.Context(), "request", attrs...)
			case status >= 400:
				logger.WarnContext(r.Context(), "request", attrs...)
			default:
				logger.InfoContext(r.Context(), "request", attrs...)
			}
		})
	}
}
