package core

import (
	"fmt"
	"strings"
)

// ResourceName is the logical resource identifier known to the admin UI
type ResourceName string

const (
	ResourceIPs          ResourceName = "IPs"
	ResourceUsers        ResourceName = "users"
	ResourceCountryCodes ResourceName = "country_code"
)

// AllResources lists every resource name the UI may reference
var AllResources = []ResourceName{
	ResourceIPs,
	ResourceUsers,
	ResourceCountryCodes,
}

// Path returns the backend path segment for the resource.
// The mapping is a fixed table; unknown names are never guessed.
func (n ResourceName) Path() (string, bool) {
	switch n {
	case ResourceIPs:
		return "tor", true
	case ResourceUsers:
		return "users", true
	case ResourceCountryCodes:
		return "country_code", true
	}
	return "", false
}

// String returns the resource name
func (n ResourceName) String() string {
	return string(n)
}

// ParseResourceName validates a raw resource name against the resource table
func ParseResourceName(raw string) (ResourceName, error) {
	name := ResourceName(raw)
	if _, ok := name.Path(); !ok {
		return "", &UnknownResourceError{Name: raw}
	}
	return name, nil
}

// Resource describes how a logical resource is exposed by the backend
type Resource struct {
	Name        ResourceName `json:"name"`
	Path        string       `json:"path"`
	ModelName   string       `json:"model_name"`
	DisplayName string       `json:"display_name"`
	PluralName  string       `json:"plural_name"`
	Fields      []FieldInfo  `json:"fields"`
	Hidden      bool         `json:"hidden"`
	ReadOnly    bool         `json:"read_only"`
	DefaultSort SortField    `json:"default_sort"`
}

// ResourceMeta contains basic metadata for listings
type ResourceMeta struct {
	Name        ResourceName `json:"name"`
	DisplayName string       `json:"display_name"`
	PluralName  string       `json:"plural_name"`
	Hidden      bool         `json:"hidden"`
	ReadOnly    bool         `json:"read_only"`
}

// LookupResource returns a fresh descriptor for the named resource
func LookupResource(name ResourceName) (*Resource, error) {
	path, ok := name.Path()
	if !ok {
		return nil, &UnknownResourceError{Name: string(name)}
	}

	var (
		modelName string
		readOnly  bool
		fields    []FieldInfo
	)

	switch name {
	case ResourceIPs:
		modelName = "TorExitNode"
		readOnly = true
		fields = []FieldInfo{
			newFieldInfo("IP", func(f *FieldBuilder) { f.DisplayName("IP").ReadOnly(true) }),
			newFieldInfo("country_name", func(f *FieldBuilder) { f.ReadOnly(true) }),
			newFieldInfo("country_code", func(f *FieldBuilder) { f.ReadOnly(true).Filterable(true) }),
		}
	case ResourceUsers:
		modelName = "User"
		fields = []FieldInfo{
			newFieldInfo("Name", nil),
			newFieldInfo("Email", nil),
			newFieldInfo("Password", func(f *FieldBuilder) { f.WriteOnly(true) }),
			newFieldInfo("Role", nil),
			newFieldInfo("AllowedIPs", func(f *FieldBuilder) { f.DisplayName("Allowed IPs").DelimitedList(",") }),
		}
	case ResourceCountryCodes:
		modelName = "CountryCode"
		readOnly = true
		fields = []FieldInfo{
			newFieldInfo("country_code", func(f *FieldBuilder) { f.ReadOnly(true) }),
		}
	}

	return &Resource{
		Name:        name,
		Path:        path,
		ModelName:   modelName,
		DisplayName: generateDisplayName(modelName),
		PluralName:  generatePluralName(modelName),
		Fields:      fields,
		ReadOnly:    readOnly,
	}, nil
}

// GetMeta returns basic metadata for listings
func (r *Resource) GetMeta() ResourceMeta {
	return ResourceMeta{
		Name:        r.Name,
		DisplayName: r.DisplayName,
		PluralName:  r.PluralName,
		Hidden:      r.Hidden,
		ReadOnly:    r.ReadOnly,
	}
}

// GetField returns the field with the given backend name
func (r *Resource) GetField(name string) (*FieldInfo, bool) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i], true
		}
	}
	return nil, false
}

// GetEffectiveDefaultSort returns the effective default sort for this resource
// following the precedence hierarchy: Explicit > ID
func (r *Resource) GetEffectiveDefaultSort() SortField {
	if r.DefaultSort.Precedence == SortPrecedenceExplicit {
		return r.DefaultSort
	}

	return SortField{
		Field:      BackendIDField,
		Direction:  SortAsc,
		Precedence: SortPrecedenceAutoID,
	}
}

// PrepareOutbound returns a copy of data shaped for the backend.
// Delimited list fields are split into sequences; data itself is not modified.
func (r *Resource) PrepareOutbound(data Record) (Record, error) {
	out := data.Clone()
	if out == nil {
		out = Record{}
	}

	for _, field := range r.Fields {
		if !field.IsDelimitedList() {
			continue
		}
		value, ok := out[field.Name]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			out[field.Name] = SplitDelimited(v, field.Delimiter)
		case []string, []any:
			// already a sequence
		default:
			return nil, fmt.Errorf("%w: field %s: expected delimited string, got %T", ErrInvalidInput, field.Name, value)
		}
	}

	return out, nil
}

// SplitDelimited splits s on sep, trims each item and drops items that are empty after trimming.
// An empty input yields an empty, non-nil slice.
func SplitDelimited(s, sep string) []string {
	items := []string{}
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		items = append(items, part)
	}
	return items
}
