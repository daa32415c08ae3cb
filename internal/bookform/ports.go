package bookform

import (
	"context"

	"bookshelf/internal/book"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=bookform

// BookStore is the part of the backend the book forms talk to.
type BookStore interface {
	GetBook(ctx context.Context, id int) (book.Book, error)
	CreateBook(ctx context.Context, token string, p book.Payload) (book.Book, error)
	UpdateBook(ctx context.Context, token string, id int, p book.Payload) (book.Book, error)
}
