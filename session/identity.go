package session

import "encoding/json"

// Identity represents a user identifier that can be of any type.
// Identities decoded from the backend are json.Number values.
type Identity any

// IdentityHelpers provides utility functions for working with Identity values
type IdentityHelpers struct{}

// GetString returns the identity as a string, or empty string if not convertible
func (IdentityHelpers) GetString(id Identity) string {
	switch v := id.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

// Global helper instance for convenience
var ID = IdentityHelpers{}
