package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const maxPageSize = 100

// parsePage reads 1-based page and page_size query params.
// Out of range values fall back to page 1 and defSize.
func parsePage(c *fiber.Ctx, defSize int) (page, pageSize int) {
	page = 1
	pageSize = defSize
	if v := strings.TrimSpace(c.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			page = n
		}
	}
	if v := strings.TrimSpace(c.Query("page_size")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= maxPageSize {
			pageSize = n
		}
	}
	return page, pageSize
}
