package catalog

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/booksapi"
	"bookshelf/internal/session"
	"bookshelf/internal/testutil"
	"bookshelf/internal/ui"
)

type fixture struct {
	backend *testutil.Backend
	session *session.Store
	console *ui.Console
	out     *bytes.Buffer
	service *Service
}

func newFixture(t *testing.T, books ...book.Book) *fixture {
	t.Helper()
	f := &fixture{
		backend: testutil.NewBackend(t, books...),
		session: session.New(),
		out:     &bytes.Buffer{},
	}
	f.console = ui.NewConsole(f.out)
	client := booksapi.NewClient(booksapi.Options{BaseURL: f.backend.URL(), Timeout: 2 * time.Second})
	f.service = NewService(client, f.session, f.console, f.console, nil)
	return f
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	token := testutil.GenerateTestToken(testutil.TestUser, time.Hour)
	f.backend.Authorize(testutil.TestUser, token)
	f.session.Login(testutil.TestUser, token)
	return token
}

func numbered(n int) []book.Book {
	books := make([]book.Book, 0, n)
	for i := 1; i <= n; i++ {
		books = append(books, book.Book{ID: i, Title: fmt.Sprintf("Book %d", i), Author: "Anon", Ratings: []int{i%5 + 1}})
	}
	return books
}

func TestService_List(t *testing.T) {
	f := newFixture(t, numbered(25)...)

	t.Run("three page links for 25 books", func(t *testing.T) {
		listing, err := f.service.List(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 25, listing.TotalCount)
		assert.Len(t, listing.Books, 10)
		assert.Equal(t, []book.PageLink{
			{Number: 1, Search: "?page=1"},
			{Number: 2, Search: "?page=2"},
			{Number: 3, Search: "?page=3"},
		}, listing.Links)
		assert.False(t, listing.CanAdd)
	})

	t.Run("page zero is page one", func(t *testing.T) {
		listing, err := f.service.List(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, 1, listing.Page)
		assert.Equal(t, 1, listing.Books[0].ID)
	})

	t.Run("last page", func(t *testing.T) {
		listing, err := f.service.List(context.Background(), 3)
		require.NoError(t, err)
		assert.Len(t, listing.Books, 5)
	})

	t.Run("logged in can add", func(t *testing.T) {
		f.login(t)
		listing, err := f.service.List(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, listing.CanAdd)
	})
}

func TestService_ListEmpty(t *testing.T) {
	f := newFixture(t)

	listing, err := f.service.List(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, listing.Books)
	assert.Empty(t, listing.Links)
}

func TestService_Detail(t *testing.T) {
	b := testutil.TestBook
	b.Ratings = []int{4, 5}
	f := newFixture(t, b, book.Book{ID: 2, Title: "Unrated"})

	t.Run("average is rounded", func(t *testing.T) {
		d, err := f.service.Detail(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 5, d.Average)
		assert.Equal(t, "★★★★★", d.Stars)
	})

	t.Run("no ratings", func(t *testing.T) {
		d, err := f.service.Detail(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, 0, d.Average)
		assert.Equal(t, "☆☆☆☆☆", d.Stars)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.service.Detail(context.Background(), 404)
		assert.ErrorIs(t, err, book.ErrNotFound)
	})
}

func TestService_Search(t *testing.T) {
	f := newFixture(t,
		book.Book{ID: 1, Title: "Gödel, Escher, Bach", Author: "Douglas Hofstadter"},
		book.Book{ID: 2, Title: "Dune", Author: "Frank Herbert", Ratings: []int{3, 4}},
		book.Book{ID: 3, Title: "Les Misérables", Author: "Victor Hugo"},
	)
	ctx := context.Background()

	t.Run("diacritics and case are ignored", func(t *testing.T) {
		results, err := f.service.Search(ctx, "godel")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1, results[0].Book.ID)

		results, err = f.service.Search(ctx, "MISÉRABLES")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 3, results[0].Book.ID)
	})

	t.Run("author matches", func(t *testing.T) {
		results, err := f.service.Search(ctx, "herbert")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 4, results[0].Average)
	})

	t.Run("no match", func(t *testing.T) {
		results, err := f.service.Search(ctx, "tolkien")
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("empty term sends nothing", func(t *testing.T) {
		before := len(f.backend.Requests())
		results, err := f.service.Search(ctx, "   ")
		require.NoError(t, err)
		assert.Nil(t, results)
		assert.Len(t, f.backend.Requests(), before)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newFixture(t, testutil.TestBook)
		f.login(t)
		f.console.Navigate("/books/1")

		require.NoError(t, f.service.Delete(context.Background(), testutil.TestBook))

		_, ok := f.backend.Book(1)
		assert.False(t, ok)
		assert.Equal(t, "i \"Test Book Title\" has been successfully deleted!\n", f.out.String())
		assert.Equal(t, "/", f.console.Path())
	})

	t.Run("unauthorized logs out", func(t *testing.T) {
		f := newFixture(t, testutil.TestBook)
		f.login(t)
		f.backend.Revoke()

		err := f.service.Delete(context.Background(), testutil.TestBook)

		assert.ErrorIs(t, err, booksapi.ErrUnauthorized)
		assert.Equal(t, "", f.session.Token())
		assert.Equal(t, "/books/1", f.console.ReturnPath())
		_, ok := f.backend.Book(1)
		assert.True(t, ok)
	})

	t.Run("no session", func(t *testing.T) {
		f := newFixture(t, testutil.TestBook)

		err := f.service.Delete(context.Background(), testutil.TestBook)

		assert.ErrorIs(t, err, session.ErrUnauthenticated)
		assert.Empty(t, f.backend.Requests())
	})

	t.Run("server error", func(t *testing.T) {
		f := newFixture(t, testutil.TestBook)
		f.login(t)
		f.backend.FailNext(http.StatusInternalServerError)

		err := f.service.Delete(context.Background(), testutil.TestBook)

		assert.Error(t, err)
		assert.Equal(t, "✗ Could not delete \"Test Book Title\"!\n", f.out.String())
		assert.NotEmpty(t, f.session.Token())
	})
}

type leavingBackend struct {
	Backend
	leave func()
}

func (b leavingBackend) GetBook(ctx context.Context, id int) (book.Book, error) {
	b.leave()
	return book.Book{ID: id}, ctx.Err()
}

func TestService_DetailStale(t *testing.T) {
	var svc *Service
	backend := leavingBackend{leave: func() { svc.Leave() }}
	svc = NewService(backend, session.New(), ui.NewConsole(&bytes.Buffer{}), ui.NewConsole(&bytes.Buffer{}), nil)

	_, err := svc.Detail(context.Background(), 1)

	assert.ErrorIs(t, err, ui.ErrStale)
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("Café Society", "", "cafe"))
	assert.True(t, Match("", "Émile Zola", "zola"))
	assert.False(t, Match("Dune", "Frank Herbert", "dune messiah"))
	assert.True(t, Match("Dune", "Frank Herbert", ""))
}
