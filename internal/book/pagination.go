package book

import "strconv"

// ItemsPerPage is the fixed page size of the book list.
const ItemsPerPage = 10

// PageLink is a 1-indexed link to one page of the book list.
type PageLink struct {
	Number int
	Search string
}

// PageCount returns ceil(total / perPage), or 0 when either is not positive.
func PageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// PageLinks returns one link per page, starting at 1.
func PageLinks(total, perPage int) []PageLink {
	n := PageCount(total, perPage)
	links := make([]PageLink, 0, n)
	for i := 1; i <= n; i++ {
		links = append(links, PageLink{Number: i, Search: "?page=" + strconv.Itoa(i)})
	}
	return links
}

// NormalizePage clamps a requested page number to at least 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
