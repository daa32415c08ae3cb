package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/booksapi"
	"bookshelf/internal/session"
	"bookshelf/internal/ui"
)

// Service loads the book list, detail and search views and deletes books.
type Service struct {
	backend   Backend
	session   *session.Store
	notifier  ui.Notifier
	navigator ui.Navigator
	logger    *zap.Logger

	list   ui.View
	detail ui.View
	search ui.View
}

// NewService creates a catalog service. A nil logger discards logs.
func NewService(backend Backend, sess *session.Store, notifier ui.Notifier, navigator ui.Navigator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:   backend,
		session:   sess,
		notifier:  notifier,
		navigator: navigator,
		logger:    logger,
	}
}

// List loads one page of books. Pages below 1 are treated as 1.
func (s *Service) List(ctx context.Context, page int) (Listing, error) {
	page = book.NormalizePage(page)
	ctx, gen := s.list.Begin(ctx)
	defer s.list.Finish(gen)

	res, err := s.backend.ListBooks(ctx, book.Query{Page: page, Limit: book.ItemsPerPage})
	if !s.list.Current(gen) {
		return Listing{}, ui.ErrStale
	}
	if err != nil {
		s.logger.Warn("list books failed", zap.Int("page", page), zap.Error(err))
		return Listing{}, err
	}

	return Listing{
		Page:       page,
		Books:      res.Books,
		TotalCount: res.TotalCount,
		Links:      book.PageLinks(res.TotalCount, book.ItemsPerPage),
		CanAdd:     s.session.Token() != "",
	}, nil
}

// Detail loads one book with its average rating. A missing book is
// reported as book.ErrNotFound.
func (s *Service) Detail(ctx context.Context, id int) (Detail, error) {
	ctx, gen := s.detail.Begin(ctx)
	defer s.detail.Finish(gen)

	b, err := s.backend.GetBook(ctx, id)
	if !s.detail.Current(gen) {
		return Detail{}, ui.ErrStale
	}
	if err != nil {
		if errors.Is(err, booksapi.ErrNotFound) {
			return Detail{}, fmt.Errorf("%w: %d", book.ErrNotFound, id)
		}
		s.logger.Warn("get book failed", zap.Int("book_id", id), zap.Error(err))
		return Detail{}, err
	}

	r := newResult(b)
	return Detail{
		Book:    b,
		Average: r.Average,
		Stars:   r.Stars,
		CanEdit: s.session.Token() != "",
	}, nil
}

// Search returns the books whose title or author contains term. An empty
// term yields no results and no request.
func (s *Service) Search(ctx context.Context, term string) ([]Result, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		s.search.Leave()
		return nil, nil
	}

	ctx, gen := s.search.Begin(ctx)
	defer s.search.Finish(gen)

	books, err := s.backend.AllBooks(ctx)
	if !s.search.Current(gen) {
		return nil, ui.ErrStale
	}
	if err != nil {
		s.logger.Warn("search books failed", zap.String("term", term), zap.Error(err))
		return nil, err
	}

	results := []Result{}
	for _, b := range books {
		if Match(b.Title, b.Author, term) {
			results = append(results, newResult(b))
		}
	}
	return results, nil
}

// Delete removes b. On success the user is told and sent back; a 401 ends
// the session and sends the user to log in.
func (s *Service) Delete(ctx context.Context, b book.Book) error {
	from := fmt.Sprintf("/books/%d", b.ID)
	token := s.session.Token()
	if token == "" {
		s.navigator.RedirectToLogin(from)
		return session.ErrUnauthenticated
	}

	if err := s.backend.DeleteBook(ctx, token, b.ID); err != nil {
		if errors.Is(err, booksapi.ErrUnauthorized) {
			s.session.Logout()
			s.navigator.RedirectToLogin(from)
			return err
		}
		s.logger.Warn("delete book failed", zap.Int("book_id", b.ID), zap.Error(err))
		s.notifier.Error(fmt.Sprintf("Could not delete \"%s\"!", b.Title))
		return err
	}

	s.notifier.Info(fmt.Sprintf("\"%s\" has been successfully deleted!", b.Title))
	s.navigator.Back()
	return nil
}

// Leave drops every in-flight load.
func (s *Service) Leave() {
	s.list.Leave()
	s.detail.Leave()
	s.search.Leave()
}
