package catalog

// TotalPages is the number of pages needed for total items.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}

	return (total + size - 1) / size
}

// PageRange returns the 1-based inclusive item range shown on page.
// An empty result gives 0, 0.
func PageRange(page, size, total int) (int, int) {
	if total <= 0 || size <= 0 || page < 1 {
		return 0, 0
	}

	start := (page-1)*size + 1
	end := min(page*size, total)
	if start > total {
		return 0, 0
	}

	return start, end
}

func ValidPage(page, totalPages int) bool {
	return page >= 1 && page <= totalPages
}

// PageWindow lists up to five page numbers centred on current.
func PageWindow(current, totalPages int) []int {
	pages := make([]int, 0, 5)
	for p := current - 2; p <= current+2; p++ {
		if ValidPage(p, totalPages) {
			pages = append(pages, p)
		}
	}

	return pages
}

// Skip is the offset of the first item on page.
func Skip(page, size int) int {
	if page < 1 {
		return 0
	}

	return (page - 1) * size
}
