package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Context keys for the session identity and the calling client
type contextKey string

const (
	identityKey contextKey = "sessionIdentity"
	clientKey   contextKey = "sessionClient"
)

// IdentityFromContext retrieves the session identity from the request context.
// Returns the identity and true if present, zero value and false otherwise.
func IdentityFromContext(ctx context.Context) (UserIdentity, bool) {
	identity, ok := ctx.Value(identityKey).(UserIdentity)
	return identity, ok
}

// WithIdentity adds the session identity to the request context
func WithIdentity(ctx context.Context, identity UserIdentity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// WithClientID scopes session operations on ctx to one client.
// The id is an opaque secret handed to that client, e.g. an admin API cookie value.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientKey, clientID)
}

// markerKey derives the store key for the client carried by ctx.
// Only a digest of the client id is persisted; contexts without a client use MarkerKey.
func markerKey(ctx context.Context) string {
	clientID, _ := ctx.Value(clientKey).(string)
	if clientID == "" {
		return MarkerKey
	}
	sum := sha256.Sum256([]byte(clientID))
	return MarkerKey + ":" + hex.EncodeToString(sum[:])
}
