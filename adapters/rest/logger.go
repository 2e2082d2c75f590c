package rest

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RequestLogger provides per-request debug logging of backend calls
type RequestLogger struct {
	enabled bool
	mu      sync.RWMutex
	logger  *slog.Logger
}

// NewRequestLogger creates a new request logger writing to logger
func NewRequestLogger(logger *slog.Logger, enabled bool) *RequestLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestLogger{
		enabled: enabled,
		logger:  logger,
	}
}

// IsEnabled returns whether request logging is enabled
func (l *RequestLogger) IsEnabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

// SetEnabled enables or disables request logging
func (l *RequestLogger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// LogResponse logs a request that received a response, whatever its status
func (l *RequestLogger) LogResponse(ctx context.Context, method, target, requestID string, status int, duration time.Duration, size int) {
	if !l.IsEnabled() {
		return
	}

	l.logger.DebugContext(ctx, "backend request",
		"method", method,
		"url", target,
		"status", status,
		"duration_ms", durationMillis(duration),
		"bytes", size,
		"request_id", requestID,
	)
}

// LogError logs a request that never produced a response
func (l *RequestLogger) LogError(ctx context.Context, method, target, requestID string, duration time.Duration, err error) {
	if !l.IsEnabled() {
		return
	}

	l.logger.DebugContext(ctx, "backend request failed",
		"method", method,
		"url", target,
		"duration_ms", durationMillis(duration),
		"request_id", requestID,
		"error", err,
	)
}

func durationMillis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
