package domain

// TotalPages returns ceil(total/perPage). An empty collection has zero pages.
func TotalPages(total, perPage int) int {
	if perPage < 1 || total < 1 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// PageBounds returns the [start, end) slice bounds of page, or ErrNoMoreUsers
// when the page lies beyond the last one.
func PageBounds(total, page, perPage int) (int, int, error) {
	pages := TotalPages(total, perPage)
	if page < 0 || page >= pages {
		return 0, 0, ErrNoMoreUsers
	}
	start := page * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	return start, end, nil
}
