package catalog

import (
	"context"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/booksapi"
)

// Backend is the part of the books API the catalog reads from.
type Backend interface {
	ListBooks(ctx context.Context, q book.Query) (booksapi.Page, error)
	AllBooks(ctx context.Context) ([]book.Book, error)
	GetBook(ctx context.Context, id int) (book.Book, error)
	DeleteBook(ctx context.Context, token string, id int) error
}
