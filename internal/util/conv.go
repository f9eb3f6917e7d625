package util

import "strconv"

// ClampPage normalizes page/limit query values: page is at least 1, limit falls back to
// def when missing or non-positive and never exceeds max.
func ClampPage(pageRaw, limitRaw string, def, max int) (page, limit int) {
	page, err := strconv.Atoi(pageRaw)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(limitRaw)
	if err != nil || limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}
