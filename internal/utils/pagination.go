package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Listing endpoints (catalog, orders, the bonus ledger) share these
// bounds. maxPageSize keeps a single request from dragging the whole
// order history through one query.
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination carries the resolved page window for a list query.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination resolves the page and limit query params, clamping
// nonsense values to the defaults and oversized limits to maxPageSize.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", defaultPageSize)

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	if parsed, err := strconv.Atoi(c.Query(key)); err == nil {
		return parsed
	}
	return fallback
}
