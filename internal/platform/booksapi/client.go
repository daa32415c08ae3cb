package booksapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"bookshelf/internal/book"
	"bookshelf/internal/httpx"
	"bookshelf/internal/user"
)

var (
	// ErrUnauthorized is returned for 401 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")
)

// StatusError is any other non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a request that never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RPS caps outgoing requests per second. Zero disables the limiter.
	RPS       float64
	Logger    *zap.Logger
	Transport http.RoundTripper
}

// Client talks to the books REST backend. It never retries; a failed call
// is reported to the caller once.
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
}

func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	decorators := []func(http.RoundTripper) http.RoundTripper{}
	if opts.RPS > 0 {
		decorators = append(decorators, httpx.RateLimitTransport(rate.NewLimiter(rate.Limit(opts.RPS), 1)))
	}
	decorators = append(decorators, httpx.RequestIDTransport, httpx.AccessLogTransport(logger))

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: httpx.Chain(opts.Transport, decorators...),
		},
		userAgent: opts.UserAgent,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
	}
}

// Page is one page of the book list.
type Page struct {
	Books      []book.Book
	TotalCount int
}

// AuthResponse is returned by /login and /register.
type AuthResponse struct {
	AccessToken string    `json:"accessToken"`
	User        user.User `json:"user"`
}

// Credentials is the /login body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the /register body.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ListBooks handles GET /books?_page=n&limit=m. The total comes from the
// X-Total-Count header.
func (c *Client) ListBooks(ctx context.Context, q book.Query) (Page, error) {
	params := url.Values{}
	params.Set("_page", strconv.Itoa(book.NormalizePage(q.Page)))
	limit := q.Limit
	if limit <= 0 {
		limit = book.ItemsPerPage
	}
	params.Set("limit", strconv.Itoa(limit))

	var books []book.Book
	header, err := c.do(ctx, http.MethodGet, "/books?"+params.Encode(), "", nil, &books)
	if err != nil {
		return Page{}, err
	}

	total, err := strconv.Atoi(header.Get("X-Total-Count"))
	if err != nil {
		total = len(books)
	}
	return Page{Books: books, TotalCount: total}, nil
}

// AllBooks handles GET /books without paging.
func (c *Client) AllBooks(ctx context.Context) ([]book.Book, error) {
	books := []book.Book{}
	if _, err := c.do(ctx, http.MethodGet, "/books", "", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// GetBook handles GET /books/{id}.
func (c *Client) GetBook(ctx context.Context, id int) (book.Book, error) {
	var b book.Book
	if _, err := c.do(ctx, http.MethodGet, bookPath(id), "", nil, &b); err != nil {
		return book.Book{}, err
	}
	return b, nil
}

// CreateBook handles POST /books.
func (c *Client) CreateBook(ctx context.Context, token string, p book.Payload) (book.Book, error) {
	var b book.Book
	if _, err := c.do(ctx, http.MethodPost, "/books", token, p, &b); err != nil {
		return book.Book{}, err
	}
	return b, nil
}

// UpdateBook handles PATCH /books/{id}.
func (c *Client) UpdateBook(ctx context.Context, token string, id int, p book.Payload) (book.Book, error) {
	var b book.Book
	if _, err := c.do(ctx, http.MethodPatch, bookPath(id), token, p, &b); err != nil {
		return book.Book{}, err
	}
	return b, nil
}

// DeleteBook handles DELETE /books/{id}.
func (c *Client) DeleteBook(ctx context.Context, token string, id int) error {
	_, err := c.do(ctx, http.MethodDelete, bookPath(id), token, nil, nil)
	return err
}

// UpdateUser handles PATCH /users/{id}.
func (c *Client) UpdateUser(ctx context.Context, token string, id int, p user.Profile) (user.User, error) {
	var u user.User
	if _, err := c.do(ctx, http.MethodPatch, "/users/"+strconv.Itoa(id), token, p, &u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// Login handles POST /login.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResponse, error) {
	var res AuthResponse
	if _, err := c.do(ctx, http.MethodPost, "/login", "", creds, &res); err != nil {
		return AuthResponse{}, err
	}
	return res, nil
}

// Register handles POST /register.
func (c *Client) Register(ctx context.Context, reg Registration) (AuthResponse, error) {
	var res AuthResponse
	if _, err := c.do(ctx, http.MethodPost, "/register", "", reg, &res); err != nil {
		return AuthResponse{}, err
	}
	return res, nil
}

func bookPath(id int) string {
	return "/books/" + strconv.Itoa(id)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, target any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, statusError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return resp.Header, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.Header, nil
}

func statusError(resp *http.Response) error {
	msg := httpx.ErrorMessage(resp)
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	default:
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
}
