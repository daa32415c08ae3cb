package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"bookshelf/internal/book"
	"bookshelf/internal/catalog"
	"bookshelf/internal/validation"
)

func renderListing(w io.Writer, l catalog.Listing) {
	fmt.Fprintln(w, "Books")
	if len(l.Books) == 0 {
		fmt.Fprintln(w, "No books found!")
		return
	}
	for _, b := range l.Books {
		fmt.Fprintf(w, "  %3d  %s by %s\n", b.ID, b.Title, b.Author)
	}
	if len(l.Links) > 0 {
		pages := make([]string, 0, len(l.Links))
		for _, link := range l.Links {
			if link.Number == l.Page {
				pages = append(pages, fmt.Sprintf("[%d]", link.Number))
			} else {
				pages = append(pages, fmt.Sprint(link.Number))
			}
		}
		fmt.Fprintf(w, "Pages: %s (%s books)\n", strings.Join(pages, " "), humanize.Comma(int64(l.TotalCount)))
	}
}

func renderDetail(w io.Writer, d catalog.Detail, now time.Time) {
	b := d.Book
	fmt.Fprintln(w, b.Title)
	fmt.Fprintf(w, "  Author: %s\n", b.Author)
	fmt.Fprintf(w, "  Genre:  %s\n", b.Genre)
	fmt.Fprintf(w, "  Year:   %d\n", b.Year)
	fmt.Fprintf(w, "  Rating: %s\n", d.Stars)
	fmt.Fprintf(w, "  Cover:  %s\n", b.Cover)
	fmt.Fprintln(w, "Reviews:")
	if len(b.Reviews) == 0 {
		fmt.Fprintln(w, "  No reviews yet.")
		return
	}
	for _, r := range b.Reviews {
		fmt.Fprintf(w, "  %s: %s (%s)\n", r.User, r.Comment, reviewDate(r.Date, now))
	}
}

// reviewDate renders a stored review date relative to now, falling back to
// the raw value when it does not parse.
func reviewDate(date string, now time.Time) string {
	if date == now.Format(book.DateLayout) {
		return "today"
	}
	t, err := time.Parse(book.DateLayout, date)
	if err != nil {
		return date
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func renderResults(w io.Writer, results []catalog.Result) {
	fmt.Fprintln(w, "Search Results")
	if len(results) == 0 {
		fmt.Fprintln(w, "No books match your search.")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "  %3d  %s by %s %s\n", r.Book.ID, r.Book.Title, r.Book.Author, r.Stars)
	}
}

func renderErrors(w io.Writer, fields []string, errs validation.Errors) {
	for _, f := range fields {
		if msg := errs.First(f); msg != "" {
			fmt.Fprintf(w, "  %s: %s\n", f, msg)
		}
	}
}
