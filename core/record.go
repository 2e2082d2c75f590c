package core

import "maps"

const (
	// BackendIDField is the primary key field name used by the backend
	BackendIDField = "ID"
	// IDField is the identity field name exposed to callers
	IDField = "id"
)

// Record is a single backend entity, keyed by field name
type Record map[string]any

// AliasID copies the backend primary key into the caller-facing id field.
// Records without a backend key are left untouched.
func (r Record) AliasID() Record {
	if r == nil {
		return r
	}
	if v, ok := r[BackendIDField]; ok {
		r[IDField] = v
	}
	return r
}

// ID returns the backend primary key of the record
func (r Record) ID() (any, bool) {
	v, ok := r[BackendIDField]
	return v, ok
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}
