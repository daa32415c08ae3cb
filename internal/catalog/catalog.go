// Package catalog serves the read side of the book collection: the paged
// list, the detail view, search, and deleting a book from its detail view.
package catalog

import (
	"bookshelf/internal/book"
	"bookshelf/internal/rating"
)

// Listing is one page of the book list.
type Listing struct {
	Page       int
	Books      []book.Book
	TotalCount int
	Links      []book.PageLink
	// CanAdd is true when a session is held.
	CanAdd bool
}

// Detail is the detail view of a book.
type Detail struct {
	Book    book.Book
	Average int
	Stars   string
	// CanEdit is true when a session is held.
	CanEdit bool
}

// Result is one search hit.
type Result struct {
	Book    book.Book
	Average int
	Stars   string
}

func newResult(b book.Book) Result {
	avg := rating.Average(b.Ratings)
	return Result{Book: b, Average: avg, Stars: rating.Stars(avg)}
}
