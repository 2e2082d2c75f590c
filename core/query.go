package core

import (
	"maps"
	"os"
	"strconv"
	"strings"
)

// DefaultPageSize is used when a query does not set a page size
const DefaultPageSize = 10

// SortDirection represents the sort order
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortPrecedence represents the precedence of sort configuration
type SortPrecedence int

const (
	SortPrecedenceNone     SortPrecedence = iota // Not configured
	SortPrecedenceExplicit                       // Explicitly configured via WithDefaultSort
	SortPrecedenceAutoID                         // Fallback to the backend ID field
)

// SortField represents a field to sort by with precedence tracking
type SortField struct {
	Field      string         `json:"field"`
	Direction  SortDirection  `json:"direction"`
	Precedence SortPrecedence `json:"precedence"`
}

// IsZero reports whether no sort field has been set
func (s SortField) IsZero() bool {
	return s.Field == ""
}

// Pagination represents 1-indexed page based pagination
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Offset returns the zero based index of the first record on the page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Query represents a list query with filters, sorting, and pagination
type Query struct {
	Filters    map[string]any `json:"filters"`
	Sort       SortField      `json:"sort"`
	Pagination Pagination     `json:"pagination"`
}

// Result represents one page of list results
type Result struct {
	Items   []Record `json:"items"`
	Total   int64    `json:"total"`
	HasMore bool     `json:"has_more"`
	Query   Query    `json:"query"`
}

// NewQuery creates a new Query for the first page with the default page size
func NewQuery() *Query {
	return &Query{
		Filters: make(map[string]any),
		Pagination: Pagination{
			Page:    1,
			PerPage: getPageSizeFromEnv(),
		},
	}
}

// WithFilters adds filters to the query
func (q *Query) WithFilters(filters map[string]any) *Query {
	if q.Filters == nil {
		q.Filters = make(map[string]any, len(filters))
	}
	maps.Copy(q.Filters, filters)
	return q
}

// WithSort sets the sort field of the query
func (q *Query) WithSort(field string, direction SortDirection) *Query {
	if !direction.IsValid() {
		direction = SortAsc
	}
	q.Sort = SortField{
		Field:      field,
		Direction:  direction,
		Precedence: SortPrecedenceExplicit,
	}
	return q
}

// WithPagination sets pagination parameters.
// Pages start at 1; a non-positive page size falls back to the default.
func (q *Query) WithPagination(page, perPage int) *Query {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = getPageSizeFromEnv()
	}

	q.Pagination.Page = page
	q.Pagination.PerPage = perPage
	return q
}

// Clone returns a copy of the query that shares no filter map with q
func (q *Query) Clone() *Query {
	clone := &Query{
		Filters:    maps.Clone(q.Filters),
		Sort:       q.Sort,
		Pagination: q.Pagination,
	}
	if clone.Filters == nil {
		clone.Filters = make(map[string]any)
	}
	return clone
}

// HasFilters returns true if the query has any filters
func (q *Query) HasFilters() bool {
	return len(q.Filters) > 0
}

// HasSort returns true if the query has sorting
func (q *Query) HasSort() bool {
	return !q.Sort.IsZero()
}

// ApplyDefaultSort applies default sorting if no sort is specified
func (q *Query) ApplyDefaultSort(resource *Resource) {
	if q.HasSort() {
		return
	}
	q.Sort = resource.GetEffectiveDefaultSort()
}

// getPageSizeFromEnv gets page size from environment variable or default
func getPageSizeFromEnv() int {
	if envSize := os.Getenv("BACKOFFICE_PAGE_SIZE"); envSize != "" {
		if size, err := strconv.Atoi(envSize); err == nil && size > 0 {
			return size
		}
	}
	return DefaultPageSize
}

// String returns a string representation of the sort direction
func (sd SortDirection) String() string {
	return string(sd)
}

// IsValid checks if the sort direction is valid
func (sd SortDirection) IsValid() bool {
	return sd == SortAsc || sd == SortDesc
}

// ParseSortDirection parses a direction case-insensitively ("ASC", "desc", ...)
func ParseSortDirection(s string) (SortDirection, bool) {
	switch SortDirection(strings.ToLower(s)) {
	case SortAsc:
		return SortAsc, true
	case SortDesc:
		return SortDesc, true
	}
	return "", false
}
