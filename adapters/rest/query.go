package rest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/torwatch/backoffice/core"
)

// listQueryBuilder builds the query string of a backend list request.
// Each parameter is set exactly once; later calls replace earlier ones.
type listQueryBuilder struct {
	params url.Values
}

func newListQuery() *listQueryBuilder {
	return &listQueryBuilder{params: make(url.Values)}
}

// WithSort sets the "<field> <direction>" sort parameter
func (b *listQueryBuilder) WithSort(sort core.SortField) *listQueryBuilder {
	b.params.Set("sort", sort.Field+" "+sort.Direction.String())
	return b
}

// WithPagination sets the page and limit parameters
func (b *listQueryBuilder) WithPagination(p core.Pagination) *listQueryBuilder {
	b.params.Set("page", strconv.Itoa(p.Page))
	b.params.Set("limit", strconv.Itoa(p.PerPage))
	return b
}

// WithFilter sets the filter parameter to the JSON encoding of filters
func (b *listQueryBuilder) WithFilter(filters map[string]any) error {
	if filters == nil {
		filters = map[string]any{}
	}
	encoded, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("%w: cannot encode filter: %v", core.ErrInvalidInput, err)
	}
	b.params.Set("filter", string(encoded))
	return nil
}

// Values returns the accumulated parameters
func (b *listQueryBuilder) Values() url.Values {
	return b.params
}

// encodeListQuery normalizes query against the resource defaults and encodes it
func encodeListQuery(resource *core.Resource, query *core.Query) (url.Values, core.Query, error) {
	var q core.Query
	if query != nil {
		q = *query
	}
	if q.Pagination.Page < 1 {
		q.Pagination.Page = 1
	}
	if q.Pagination.PerPage < 1 {
		q.Pagination.PerPage = core.DefaultPageSize
	}
	if !q.HasSort() {
		q.Sort = resource.GetEffectiveDefaultSort()
	}
	if !q.Sort.Direction.IsValid() {
		q.Sort.Direction = core.SortAsc
	}

	b := newListQuery().
		WithSort(q.Sort).
		WithPagination(q.Pagination)
	if err := b.WithFilter(q.Filters); err != nil {
		return nil, q, err
	}
	return b.Values(), q, nil
}

// formatID renders a record identifier as a path segment
func formatID(id any) (string, error) {
	switch v := id.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("%w: empty id", core.ErrInvalidInput)
		}
		if v == "." || v == ".." || strings.Contains(v, "/") {
			return "", fmt.Errorf("%w: id %q is not a single path segment", core.ErrInvalidInput, v)
		}
		return v, nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", fmt.Errorf("%w: missing id", core.ErrInvalidInput)
	}
	return "", fmt.Errorf("%w: unsupported id type %T", core.ErrInvalidInput, id)
}
