package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bookshelf/internal/book"
)

func newBooksCmd(current func() *app) *cobra.Command {
	booksCmd := &cobra.Command{
		Use:   "books",
		Short: "Read-only book commands",
	}

	var page int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			listing, err := a.catalog.List(cmd.Context(), page)
			if err != nil {
				return fmt.Errorf("list books: %w", err)
			}
			renderListing(a.out, listing)
			return nil
		},
	}
	listCmd.Flags().IntVarP(&page, "page", "p", 1, "Page number, starting at 1")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a book with its rating and reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a := current()
			d, err := a.catalog.Detail(cmd.Context(), id)
			if errors.Is(err, book.ErrNotFound) {
				return fmt.Errorf("no book with id %d", id)
			}
			if err != nil {
				return fmt.Errorf("show book: %w", err)
			}
			renderDetail(a.out, d, time.Now())
			return nil
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search <term>...",
		Short: "Search books by title or author",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			results, err := a.catalog.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("search books: %w", err)
			}
			renderResults(a.out, results)
			return nil
		},
	}

	booksCmd.AddCommand(listCmd, showCmd, searchCmd)
	return booksCmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}
