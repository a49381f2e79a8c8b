package service

import (
	"math"

	"listinghub/internal/config"
)

type PageRequest struct {
	Page  int
	Limit int
}

// normalize applies defaults to missing or out-of-range values and caps the limit.
// The offset saturates instead of overflowing, so an absurd page reads past the end.
func (r PageRequest) normalize(cfg config.ListingsConfig) (page, limit, offset int) {
	page = r.Page
	if page < 1 {
		page = 1
	}
	limit = r.Limit
	if limit < 1 {
		limit = cfg.DefaultLimit
	}
	if cfg.MaxLimit > 0 && limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if limit < 1 {
		limit = 1
	}
	return page, limit, pageOffset(page, limit)
}

func pageOffset(page, limit int) int {
	maxSkip := (math.MaxInt - limit) / limit
	if page-1 > maxSkip {
		return maxSkip * limit
	}
	return (page - 1) * limit
}

func totalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
