package views

// PageSize is the number of headers shown per page.
const PageSize = 10

// PageStart is the height the byHeight request for page (1-based) starts at.
// Page 1 ends at the tip. The result is negative once the page runs past genesis.
func PageStart(tip, page int) int {
	return tip - page*PageSize + 1
}

// PageRange returns the start height and count to request for page, clamped
// so that no height below genesis (0) is ever requested. The page still ends
// at tip-(page-1)*PageSize. A page entirely below genesis yields count 0.
func PageRange(tip, page int) (start, count int) {
	start = PageStart(tip, page)
	count = PageSize
	if start < 0 {
		count += start
		start = 0
	}
	if count < 0 {
		count = 0
	}
	return start, count
}

// RowHeight is the height displayed for row i of page; rows are newest-first.
func RowHeight(tip, page, i int) int {
	return tip - (page-1)*PageSize - i
}

// HasPrevPage reports whether the previous control is enabled.
func HasPrevPage(page int) bool {
	return page > 1
}

// HasNextPage reports whether a page exists after page, i.e. page has not
// reached genesis yet.
func HasNextPage(tip, page int) bool {
	return PageStart(tip, page) > 0
}
