package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookshelf/internal/book"
	"bookshelf/internal/user"
)

const tokenSecret = "test-secret"

// TestUser is a mock user for testing
var TestUser = user.User{
	ID:        7,
	Email:     "ada@example.com",
	FirstName: "Ada",
	LastName:  "Lovelace",
}

// TestPassword is the password the fake backend accepts for TestUser.
const TestPassword = "bestsecret"

// TestBook is a mock book for testing
var TestBook = book.Book{
	ID:      1,
	Title:   "Test Book Title",
	Author:  "Test Author",
	Year:    1999,
	Genre:   "Fiction",
	Cover:   "https://example.com/cover.jpg",
	UserID:  3,
	Ratings: []int{3},
	Reviews: []book.Review{
		{ID: 1, UserID: 3, User: "Bob", Comment: "meh", Date: "2024-01-01"},
	},
}

// GenerateTestToken generates a JWT access token for testing
func GenerateTestToken(u user.User, ttl time.Duration) string {
	c := jwt.MapClaims{
		"email": u.Email,
		"sub":   strconv.Itoa(u.ID),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(tokenSecret))
	return token
}

// GenerateExpiredToken generates an expired JWT token for testing
func GenerateExpiredToken(u user.User) string {
	return GenerateTestToken(u, -time.Hour)
}

// RecordedRequest is one request seen by the fake backend.
type RecordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
}

// Backend is an in-memory stand-in for the books REST backend, shaped like
// json-server with json-server-auth.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	books     map[int]book.Book
	users     map[int]user.User
	passwords map[string]string
	tokens    map[string]int
	nextID    int
	requests  []RecordedRequest
	failNext  int
}

// NewBackend starts a fake backend seeded with TestUser and books. It is
// closed when the test ends.
func NewBackend(t testing.TB, books ...book.Book) *Backend {
	t.Helper()

	b := &Backend{
		books:     map[int]book.Book{},
		users:     map[int]user.User{TestUser.ID: TestUser},
		passwords: map[string]string{TestUser.Email: TestPassword},
		tokens:    map[string]int{},
	}
	for _, bk := range books {
		b.books[bk.ID] = bk
		if bk.ID > b.nextID {
			b.nextID = bk.ID
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /books", b.listBooks)
	mux.HandleFunc("GET /books/{id}", b.getBook)
	mux.HandleFunc("POST /books", b.requireAuth(b.createBook))
	mux.HandleFunc("PATCH /books/{id}", b.requireAuth(b.updateBook))
	mux.HandleFunc("DELETE /books/{id}", b.requireAuth(b.deleteBook))
	mux.HandleFunc("PATCH /users/{id}", b.requireAuth(b.updateUser))
	mux.HandleFunc("POST /login", b.login)
	mux.HandleFunc("POST /register", b.register)

	b.Server = httptest.NewServer(b.record(mux))
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL of the fake backend.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Authorize makes token valid for u without going through /login.
func (b *Backend) Authorize(u user.User, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[u.ID] = u
	b.tokens[token] = u.ID
}

// Revoke invalidates every issued token, as if they had expired server side.
func (b *Backend) Revoke() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = map[string]int{}
}

// FailNext makes the next request fail with status.
func (b *Backend) FailNext(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = status
}

// Book returns the stored book with id.
func (b *Backend) Book(id int) (book.Book, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, ok := b.books[id]
	return bk, ok
}

// Requests returns every request received so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		status := b.failNext
		b.failNext = 0
		b.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		_, ok := b.tokens[token]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, "jwt malformed")
			return
		}
		next(w, r)
	}
}

func (b *Backend) listBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("_page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = book.ItemsPerPage
	}
	b.mu.Lock()
	var all []book.Book
	for _, bk := range b.books {
		all = append(all, bk)
	}
	b.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start, end := 0, len(all)
	if query.Has("_page") {
		start = (page - 1) * limit
		end = start + limit
	}
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(all)))
	writeJSON(w, http.StatusOK, append([]book.Book{}, all[start:end]...))
}

func (b *Backend) getBook(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	bk, ok := b.Book(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, bk)
}

func (b *Backend) createBook(w http.ResponseWriter, r *http.Request) {
	var bk book.Book
	if err := json.NewDecoder(r.Body).Decode(&bk); err != nil {
		writeJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	b.nextID++
	bk.ID = b.nextID
	b.books[bk.ID] = bk
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, bk)
}

func (b *Backend) updateBook(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	b.mu.Lock()
	defer b.mu.Unlock()
	bk, ok := b.books[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{})
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&bk); err != nil {
		writeJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	bk.ID = id
	b.books[id] = bk
	writeJSON(w, http.StatusOK, bk)
}

func (b *Backend) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.books[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{})
		return
	}
	delete(b.books, id)
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (b *Backend) updateUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{})
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	u.ID = id
	b.users[id] = u
	writeJSON(w, http.StatusOK, u)
}

type credentials struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if pw, ok := b.passwords[c.Email]; !ok || pw != c.Password {
		writeJSON(w, http.StatusBadRequest, "Incorrect password")
		return
	}
	for _, u := range b.users {
		if u.Email == c.Email {
			b.issue(w, http.StatusOK, u)
			return
		}
	}
	writeJSON(w, http.StatusBadRequest, "Cannot find user")
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.passwords[c.Email]; ok {
		writeJSON(w, http.StatusBadRequest, "Email already exists")
		return
	}
	id := 1
	for uid := range b.users {
		if uid >= id {
			id = uid + 1
		}
	}
	u := user.User{ID: id, Email: c.Email, FirstName: c.FirstName, LastName: c.LastName}
	b.users[id] = u
	b.passwords[c.Email] = c.Password
	b.issue(w, http.StatusCreated, u)
}

// issue must be called with b.mu held.
func (b *Backend) issue(w http.ResponseWriter, status int, u user.User) {
	token := GenerateTestToken(u, time.Hour)
	b.tokens[token] = u.ID
	writeJSON(w, status, map[string]any{"accessToken": token, "user": u})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
