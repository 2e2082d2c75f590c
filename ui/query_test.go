package ui

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torwatch/backoffice/core"
)

func TestParseQueryFromRequest(t *testing.T) {
	params := url.Values{}
	params.Set("page", "3")
	params.Set("perPage", "20")
	params.Set("sort", "IP")
	params.Set("order", "DESC")
	params.Set("filter", `{"country_code":["DE","NL"]}`)
	r := httptest.NewRequest("GET", "/api/IPs?"+params.Encode(), nil)

	query, err := parseQueryFromRequest(r, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, query.Pagination.Page)
	assert.Equal(t, 20, query.Pagination.PerPage)
	assert.Equal(t, "IP", query.Sort.Field)
	assert.Equal(t, core.SortDesc, query.Sort.Direction)
	assert.Equal(t, []any{"DE", "NL"}, query.Filters["country_code"])
}

func TestParseQueryFromRequest_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/users", nil)

	query, err := parseQueryFromRequest(r, 25)
	require.NoError(t, err)

	assert.Equal(t, 1, query.Pagination.Page)
	assert.Equal(t, 25, query.Pagination.PerPage)
	assert.False(t, query.HasSort())
	assert.False(t, query.HasFilters())
}

func TestParseQueryFromRequest_SortWithoutOrderIsAscending(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/users?sort=Email", nil)

	query, err := parseQueryFromRequest(r, 10)
	require.NoError(t, err)
	assert.Equal(t, core.SortAsc, query.Sort.Direction)
}

func TestParseQueryFromRequest_Rejects(t *testing.T) {
	for _, target := range []string{
		"/api/users?page=-1",
		"/api/users?page=x",
		"/api/users?perPage=0",
		"/api/users?sort=Name&order=up",
		"/api/users?filter=%5B1%5D",
	} {
		r := httptest.NewRequest("GET", target, nil)
		_, err := parseQueryFromRequest(r, 10)
		assert.ErrorIs(t, err, errBadRequest, target)
	}
}

func TestDecodeRecord(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/users", strings.NewReader(`{"ID":12,"Name":"Ada"}`))
	record, err := decodeRecord(r)
	require.NoError(t, err)
	assert.Equal(t, json.Number("12"), record["ID"])

	r = httptest.NewRequest("POST", "/api/users", strings.NewReader(`null`))
	_, err = decodeRecord(r)
	assert.ErrorIs(t, err, errBadRequest)
}
