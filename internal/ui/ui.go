// Package ui defines how controllers talk back to whatever renders them:
// transient notifications and navigation between views.
package ui

import (
	"fmt"
	"io"
	"net/url"
	"sync"
)

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/login"

// Notifier shows transient messages.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// Navigator moves between views.
type Navigator interface {
	Navigate(path string)
	Back()
	// RedirectToLogin sends the user to the login view, remembering from so
	// the user can be returned there after logging in.
	RedirectToLogin(from string)
}

// Console prints notifications to an io.Writer and keeps a navigation
// history in memory. It is safe for concurrent use.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	history []string
	from    string
}

// NewConsole returns a Console positioned at "/".
func NewConsole(out io.Writer) *Console {
	return &Console{out: out, history: []string{"/"}}
}

func (c *Console) Success(msg string) { c.print("✓", msg) }
func (c *Console) Info(msg string)    { c.print("i", msg) }
func (c *Console) Error(msg string)   { c.print("✗", msg) }

func (c *Console) print(prefix, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", prefix, msg)
}

func (c *Console) Navigate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, path)
}

// Back pops the history. The root view is never popped.
func (c *Console) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) > 1 {
		c.history = c.history[:len(c.history)-1]
	}
}

func (c *Console) RedirectToLogin(from string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.from = from
	c.history = append(c.history, LoginPath+"?from="+url.QueryEscape(from))
}

// Path returns the current view.
func (c *Console) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history[len(c.history)-1]
}

// ReturnPath returns and forgets the path saved by RedirectToLogin, or "/"
// when there is none.
func (c *Console) ReturnPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	from := c.from
	c.from = ""
	if from == "" {
		return "/"
	}
	return from
}
