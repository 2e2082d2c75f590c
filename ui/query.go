package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/torwatch/backoffice/core"
)

// parseQueryFromRequest parses the list parameters page, perPage, sort, order and filter.
// Missing values fall back to the resource defaults; malformed values are rejected.
func parseQueryFromRequest(r *http.Request, defaultPerPage int) (*core.Query, error) {
	params := r.URL.Query()
	query := core.NewQuery()

	page := 1
	if raw := params.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("%w: page must be a positive integer", errBadRequest)
		}
		page = parsed
	}

	perPage := defaultPerPage
	if raw := params.Get("perPage"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("%w: perPage must be a positive integer", errBadRequest)
		}
		perPage = parsed
	}
	query.WithPagination(page, perPage)

	if field := params.Get("sort"); field != "" {
		direction := core.SortAsc
		if raw := params.Get("order"); raw != "" {
			parsed, ok := core.ParseSortDirection(raw)
			if !ok {
				return nil, fmt.Errorf("%w: order must be asc or desc", errBadRequest)
			}
			direction = parsed
		}
		query.WithSort(field, direction)
	}

	if raw := params.Get("filter"); raw != "" {
		var filters map[string]any
		if err := json.Unmarshal([]byte(raw), &filters); err != nil {
			return nil, fmt.Errorf("%w: filter must be a JSON object", errBadRequest)
		}
		query.WithFilters(filters)
	}

	return query, nil
}

// decodeRecord reads a JSON object request body
func decodeRecord(r *http.Request) (core.Record, error) {
	var record core.Record
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", errBadRequest)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", errBadRequest)
	}
	return record, nil
}

func decodeJSONBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body", errBadRequest)
	}
	return nil
}
