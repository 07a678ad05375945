package api

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// parsePagination reads limit and offset from the query. Missing or
// malformed values fall back to the defaults; limit is capped at
// maxPageLimit.
func parsePagination(c echo.Context) (limit, offset int) {
	limit = min(queryInt(c, "limit", defaultPageLimit, 1), maxPageLimit)
	offset = queryInt(c, "offset", 0, 0)
	return limit, offset
}

// queryInt returns the named query parameter, or def when it is absent,
// not a number, or below floor.
func queryInt(c echo.Context, name string, def, floor int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < floor {
		return def
	}
	return v
}

// paginate returns the page of items selected by limit and offset.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	return items[offset:min(offset+limit, len(items))]
}
