package book

import (
	"errors"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// DateLayout is the format of Review.Date.
const DateLayout = "2006-01-02"

// Book represents a book entity as stored by the backend.
type Book struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Author  string   `json:"author"`
	Year    int      `json:"year"`
	Genre   string   `json:"genre"`
	Cover   string   `json:"cover"`
	UserID  int      `json:"userId"`
	Ratings []int    `json:"ratings"`
	Reviews []Review `json:"reviews"`
}

// Review is a single user's comment on a book. A book holds at most one
// review per user.
type Review struct {
	ID      int    `json:"id"`
	UserID  int    `json:"userId"`
	User    string `json:"user"`
	Comment string `json:"comment"`
	Date    string `json:"date"`
}

// Payload is the body sent on create and update.
type Payload struct {
	Title   string   `json:"title"`
	Author  string   `json:"author"`
	Year    int      `json:"year"`
	Genre   string   `json:"genre"`
	Cover   string   `json:"cover"`
	UserID  int      `json:"userId"`
	Ratings []int    `json:"ratings"`
	Reviews []Review `json:"reviews"`
}

// ReviewBy returns the review written by userID, if any.
func (b Book) ReviewBy(userID int) (Review, bool) {
	for _, r := range b.Reviews {
		if r.UserID == userID {
			return r, true
		}
	}
	return Review{}, false
}

// Query selects one page of the book list.
type Query struct {
	Page  int
	Limit int
}
