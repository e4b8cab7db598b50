package main

// pageSize is how many list items are printed per page.
const pageSize = 8

// page returns the items of page p (zero-based) along with the total
// page count. Out of range pages are clamped.
func page[T any](items []T, p int) (current []T, index, total int) {
	total = (len(items) + pageSize - 1) / pageSize
	if total == 0 {
		return items[:0], 0, 0
	}
	if p < 0 {
		p = 0
	}
	if p >= total {
		p = total - 1
	}
	start := p * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], p, total
}
