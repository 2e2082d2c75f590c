package core

import "context"

// SessionToken is the backend session credential attached to every adapter call.
// An empty token means the call is made without a session.
type SessionToken string

// IsZero reports whether the token is empty
func (t SessionToken) IsZero() bool {
	return t == ""
}

// Adapter defines the interface for data source adapters.
// Every operation succeeds or fails based solely on the backend's response.
type Adapter interface {
	List(ctx context.Context, token SessionToken, resource ResourceName, query *Query) (*Result, error)
	GetOne(ctx context.Context, token SessionToken, resource ResourceName, id any) (Record, error)
	Create(ctx context.Context, token SessionToken, resource ResourceName, data Record) (Record, error)
	Update(ctx context.Context, token SessionToken, resource ResourceName, id any, data Record) (Record, error)
	// Delete returns the deleted record as reported by the backend
	Delete(ctx context.Context, token SessionToken, resource ResourceName, id any) (Record, error)
}

// TokenSource supplies the session token for outgoing adapter calls
type TokenSource interface {
	Token(ctx context.Context) (SessionToken, error)
}

// TokenSourceFunc adapts a function to TokenSource
type TokenSourceFunc func(ctx context.Context) (SessionToken, error)

// Token implements TokenSource
func (f TokenSourceFunc) Token(ctx context.Context) (SessionToken, error) {
	return f(ctx)
}
