package core

import (
	"context"
	"fmt"
)

// BackOffice is the admin runtime: it owns the registered resources and
// threads the session token into every adapter call
type BackOffice struct {
	adapter       Adapter
	tokens        TokenSource
	resources     map[ResourceName]*Resource
	resourceOrder []ResourceName // Track registration order for consistent display
	config        *Config
}

// Config holds configuration for the BackOffice instance
type Config struct {
	Title        string `json:"title"`
	ItemsPerPage int    `json:"items_per_page"`
}

// New creates a new BackOffice instance with the given adapter and token source.
// A nil token source makes every call without a session.
func New(adapter Adapter, tokens TokenSource) *BackOffice {
	return &BackOffice{
		adapter:       adapter,
		tokens:        tokens,
		resources:     make(map[ResourceName]*Resource),
		resourceOrder: make([]ResourceName, 0),
		config: &Config{
			Title:        "BackOffice Admin",
			ItemsPerPage: DefaultPageSize,
		},
	}
}

// RegisterResource registers a resource with the admin runtime.
// It panics for names missing from the resource table.
func (bo *BackOffice) RegisterResource(name ResourceName) *ResourceBuilder {
	resource, err := LookupResource(name)
	if err != nil {
		panic(fmt.Sprintf("RegisterResource: %v", err))
	}

	if _, exists := bo.resources[name]; !exists {
		bo.resourceOrder = append(bo.resourceOrder, name)
	}
	bo.resources[name] = resource

	return &ResourceBuilder{
		backoffice: bo,
		resource:   resource,
	}
}

// GetResource retrieves a registered resource by name
func (bo *BackOffice) GetResource(name ResourceName) (*Resource, bool) {
	resource, exists := bo.resources[name]
	return resource, exists
}

// GetResources returns all registered resources in registration order
func (bo *BackOffice) GetResources() []*Resource {
	ordered := make([]*Resource, 0, len(bo.resourceOrder))
	for _, name := range bo.resourceOrder {
		if resource, exists := bo.resources[name]; exists {
			ordered = append(ordered, resource)
		}
	}
	return ordered
}

// GetConfig returns the configuration
func (bo *BackOffice) GetConfig() *Config {
	return bo.config
}

// List returns one page of records for a registered resource.
// Defaults are applied to a copy; the caller's query is left as is.
func (bo *BackOffice) List(ctx context.Context, name ResourceName, query *Query) (*Result, error) {
	resource, err := bo.resolve(name)
	if err != nil {
		return nil, err
	}

	if query == nil {
		query = NewQuery()
	} else {
		query = query.Clone()
	}
	if query.Pagination.PerPage < 1 {
		query.WithPagination(query.Pagination.Page, bo.config.ItemsPerPage)
	}
	query.ApplyDefaultSort(resource)

	token, err := bo.token(ctx)
	if err != nil {
		return nil, err
	}
	return bo.adapter.List(ctx, token, name, query)
}

// GetOne returns a single record
func (bo *BackOffice) GetOne(ctx context.Context, name ResourceName, id any) (Record, error) {
	if _, err := bo.resolve(name); err != nil {
		return nil, err
	}
	token, err := bo.token(ctx)
	if err != nil {
		return nil, err
	}
	return bo.adapter.GetOne(ctx, token, name, id)
}

// Create creates a record and returns the backend's copy.
// The record is shaped by the registered field settings before it reaches the adapter.
func (bo *BackOffice) Create(ctx context.Context, name ResourceName, data Record) (Record, error) {
	payload, err := bo.prepare(name, data)
	if err != nil {
		return nil, err
	}
	token, err := bo.token(ctx)
	if err != nil {
		return nil, err
	}
	return bo.adapter.Create(ctx, token, name, payload)
}

// Update replaces a record and returns the backend's copy
func (bo *BackOffice) Update(ctx context.Context, name ResourceName, id any, data Record) (Record, error) {
	payload, err := bo.prepare(name, data)
	if err != nil {
		return nil, err
	}
	token, err := bo.token(ctx)
	if err != nil {
		return nil, err
	}
	return bo.adapter.Update(ctx, token, name, id, payload)
}

// Delete removes a record and returns the deleted record
func (bo *BackOffice) Delete(ctx context.Context, name ResourceName, id any) (Record, error) {
	if _, err := bo.resolve(name); err != nil {
		return nil, err
	}
	token, err := bo.token(ctx)
	if err != nil {
		return nil, err
	}
	return bo.adapter.Delete(ctx, token, name, id)
}

func (bo *BackOffice) resolve(name ResourceName) (*Resource, error) {
	resource, exists := bo.resources[name]
	if !exists {
		return nil, &UnknownResourceError{Name: string(name)}
	}
	return resource, nil
}

func (bo *BackOffice) prepare(name ResourceName, data Record) (Record, error) {
	resource, err := bo.resolve(name)
	if err != nil {
		return nil, err
	}
	payload, err := resource.PrepareOutbound(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return payload, nil
}

func (bo *BackOffice) token(ctx context.Context) (SessionToken, error) {
	if bo.tokens == nil {
		return "", nil
	}
	token, err := bo.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return token, nil
}

// ResourceBuilder provides fluent API for resource configuration
type ResourceBuilder struct {
	backoffice *BackOffice
	resource   *Resource
}

// WithPluralName sets a custom plural name for the resource
func (rb *ResourceBuilder) WithPluralName(name string) *ResourceBuilder {
	rb.resource.PluralName = name
	return rb
}

// WithField configures a field, adding it if the resource table does not declare it
func (rb *ResourceBuilder) WithField(fieldName string, config func(*FieldBuilder)) *ResourceBuilder {
	builder := NewFieldBuilder()
	config(builder)
	fc := builder.Build()

	if field, ok := rb.resource.GetField(fieldName); ok {
		fc.Apply(field)
		return rb
	}

	info := FieldInfo{Name: fieldName, DisplayName: generateFieldLabel(fieldName)}
	fc.Apply(&info)
	rb.resource.Fields = append(rb.resource.Fields, info)
	return rb
}

// Hidden sets whether the resource should be hidden from navigation
func (rb *ResourceBuilder) Hidden(hidden bool) *ResourceBuilder {
	rb.resource.Hidden = hidden
	return rb
}

// WithDefaultSort sets the default sorting for the resource
func (rb *ResourceBuilder) WithDefaultSort(field string, direction SortDirection) *ResourceBuilder {
	rb.resource.DefaultSort = SortField{
		Field:      field,
		Direction:  direction,
		Precedence: SortPrecedenceExplicit,
	}
	return rb
}
