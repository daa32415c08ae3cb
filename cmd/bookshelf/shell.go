package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bookshelf/internal/auth"
	"bookshelf/internal/book"
	"bookshelf/internal/bookform"
	"bookshelf/internal/platform/booksapi"
	"bookshelf/internal/profile"
	"bookshelf/internal/session"
	"bookshelf/internal/validation"
)

const shellHelp = `Available commands:
  Books:   list [page], show <id>, search <term>, add, edit <id>, delete <id>
  Account: login, register, logout, profile, whoami
  System:  help, exit

Tips:
  • In forms, press Enter to keep the value in brackets, or type - to clear it.
  • Clearing the review of a book you edit deletes your review.`

func newShellCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newShell(cmd.Context(), current(), cmd.InOrStdin()).run()
		},
	}
}

type shell struct {
	*app
	ctx          context.Context
	sc           *bufio.Scanner
	readPassword func(prompt string) (string, error)
}

func newShell(ctx context.Context, a *app, in io.Reader) *shell {
	s := &shell{app: a, ctx: ctx, sc: bufio.NewScanner(in)}
	s.readPassword = s.readLine
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		s.readPassword = func(prompt string) (string, error) {
			fmt.Fprint(s.out, prompt)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(s.out)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(string(b)), nil
		}
	}
	return s
}

func (s *shell) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.sc.Text()), nil
}

// ask prompts for a form field. Enter keeps current, "-" clears it.
func (s *shell) ask(label, current string) (string, error) {
	prompt := label + ": "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, current)
	}
	v, err := s.readLine(prompt)
	switch {
	case err != nil:
		return "", err
	case v == "":
		return current, nil
	case v == "-":
		return "", nil
	default:
		return v, nil
	}
}

func (s *shell) run() error {
	fmt.Fprintln(s.out, "Welcome to bookshelf!")
	fmt.Fprintln(s.out, shellHelp)

	for {
		line, err := s.readLine("\n> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(s.out, shellHelp)
		case "login":
			s.handleLogin()
		case "register":
			s.handleRegister()
		case "logout":
			s.auth.Logout()
			s.console.Info("You have been logged out.")
		case "whoami":
			s.handleWhoami()
		case "list":
			s.handleList(args)
		case "show":
			s.withID(args, s.handleShow)
		case "search":
			s.handleSearch(strings.Join(args, " "))
		case "add":
			s.handleAdd()
		case "edit":
			s.withID(args, s.handleEdit)
		case "delete":
			s.withID(args, s.handleDelete)
		case "profile":
			s.handleProfile()
		case "exit", "quit":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Unknown command. Type help to see the available commands.")
		}
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
	}
}

func (s *shell) withID(args []string, fn func(id int)) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Please give exactly one book id.")
		return
	}
	id, err := parseID(args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	fn(id)
}

func (s *shell) handleLogin() {
	email, err := s.readLine("Email: ")
	if err != nil {
		return
	}
	password, err := s.readPassword("Password: ")
	if err != nil {
		return
	}

	u, errs, err := s.auth.Login(s.ctx, validation.FormValues{"email": {email}, "password": {password}})
	if !s.authFailed(err, errs, []string{"email", "password"}) {
		s.welcome(fmt.Sprintf("Welcome back, %s!", u.FirstName))
	}
}

func (s *shell) handleRegister() {
	values := validation.FormValues{}
	for _, f := range []struct{ key, label string }{
		{"email", "Email"}, {"firstName", "First name"}, {"lastName", "Last name"},
	} {
		v, err := s.readLine(f.label + ": ")
		if err != nil {
			return
		}
		values.Set(f.key, v)
	}
	password, err := s.readPassword("Password: ")
	if err != nil {
		return
	}
	values.Set("password", password)

	u, errs, err := s.auth.Register(s.ctx, values)
	if !s.authFailed(err, errs, []string{"email", "password", "firstName", "lastName"}) {
		s.welcome(fmt.Sprintf("Welcome, %s!", u.FirstName))
	}
}

func (s *shell) authFailed(err error, errs validation.Errors, fields []string) bool {
	var rejected *auth.RejectedError
	switch {
	case err == nil:
		return false
	case errors.Is(err, auth.ErrInvalid):
		renderErrors(s.out, fields, errs)
	case errors.As(err, &rejected):
		s.console.Error(rejected.Message)
	default:
		s.console.Error("Could not reach the server. Please try again.")
	}
	return true
}

func (s *shell) welcome(msg string) {
	s.console.Success(msg)
	if from := s.console.ReturnPath(); from != "/" {
		s.console.Navigate(from)
		fmt.Fprintf(s.out, "You can go back to %s now.\n", from)
	}
}

func (s *shell) handleWhoami() {
	u, _, ok := s.session.Current()
	if !ok {
		fmt.Fprintln(s.out, "Not logged in.")
		return
	}
	fmt.Fprintf(s.out, "Logged in as %s <%s>\n", u.FullName(), u.Email)
}

func (s *shell) handleList(args []string) {
	page := 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			page = n
		}
	}
	listing, err := s.catalog.List(s.ctx, page)
	if err != nil {
		s.console.Error("Could not load the books.")
		return
	}
	s.console.Navigate("/books?page=" + strconv.Itoa(listing.Page))
	renderListing(s.out, listing)
	if listing.CanAdd {
		fmt.Fprintln(s.out, "Type add to add a book.")
	}
}

func (s *shell) handleShow(id int) {
	d, err := s.catalog.Detail(s.ctx, id)
	if errors.Is(err, book.ErrNotFound) {
		fmt.Fprintf(s.out, "No book with id %d.\n", id)
		return
	}
	if err != nil {
		s.console.Error("Could not load the book.")
		return
	}
	s.console.Navigate(fmt.Sprintf("/books/%d", id))
	renderDetail(s.out, d, time.Now())
}

func (s *shell) handleSearch(term string) {
	results, err := s.catalog.Search(s.ctx, term)
	if err != nil {
		s.console.Error("Error fetching or filtering books.")
		return
	}
	if results == nil {
		fmt.Fprintln(s.out, "Type search followed by a title or author.")
		return
	}
	renderResults(s.out, results)
}

func (s *shell) formDeps() bookform.Deps {
	return bookform.Deps{
		Store:     s.client,
		Session:   s.session,
		Notifier:  s.console,
		Navigator: s.console,
		Logger:    s.logger,
	}
}

func (s *shell) loggedIn(from string) bool {
	if err := s.session.Authorize(time.Now()); err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			s.session.Logout()
		}
		s.console.RedirectToLogin(from)
		fmt.Fprintln(s.out, "Please log in first.")
		return false
	}
	return true
}

func (s *shell) handleAdd() {
	form := bookform.NewAddForm(s.formDeps())
	if !s.loggedIn(form.Path()) {
		return
	}
	s.console.Navigate(form.Path())
	fmt.Fprintln(s.out, "Add Books")
	s.submitBook(form)
}

func (s *shell) handleEdit(id int) {
	form := bookform.NewEditForm(s.formDeps(), id)
	if !s.loggedIn(form.Path()) {
		return
	}
	err := form.Load(s.ctx)
	switch {
	case errors.Is(err, book.ErrNotFound):
		fmt.Fprintf(s.out, "No book with id %d.\n", id)
		return
	case err != nil:
		s.console.Error("Could not load the book.")
		return
	}
	s.console.Navigate(form.Path())
	b, _ := form.Book()
	fmt.Fprintf(s.out, "Edit %q\n", b.Title)
	s.submitBook(form)
}

var fieldLabels = map[string]string{
	bookform.FieldTitle:  "Title",
	bookform.FieldAuthor: "Author",
	bookform.FieldYear:   "Year",
	bookform.FieldGenre:  "Genre",
	bookform.FieldCover:  "Cover URL",
	bookform.FieldRating: "Rating (1-5)",
	bookform.FieldReview: "Review",
}

func (s *shell) submitBook(form *bookform.Form) {
	fields := bookform.Fields
	for {
		values := form.Values()
		for _, f := range fields {
			v, err := s.ask(fieldLabels[f], values.Get(f))
			if err != nil {
				return
			}
			if f == bookform.FieldReview && v == "" {
				form.DeleteReview()
				continue
			}
			form.Change(f, v)
		}

		saved, err := form.Submit(s.ctx)
		switch {
		case err == nil:
			s.handleShow(saved.ID)
			return
		case errors.Is(err, bookform.ErrInvalid):
			errs := form.Errors()
			renderErrors(s.out, bookform.Fields, errs)
			fields = failing(bookform.Fields, errs)
		case errors.Is(err, booksapi.ErrUnauthorized),
			errors.Is(err, session.ErrUnauthenticated),
			errors.Is(err, session.ErrTokenExpired):
			fmt.Fprintln(s.out, "Your session has ended. Please log in again.")
			return
		default:
			return
		}
	}
}

func failing(fields []string, errs validation.Errors) []string {
	out := make([]string, 0, len(errs))
	for _, f := range fields {
		if _, ok := errs[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (s *shell) handleDelete(id int) {
	d, err := s.catalog.Detail(s.ctx, id)
	if errors.Is(err, book.ErrNotFound) {
		fmt.Fprintf(s.out, "No book with id %d.\n", id)
		return
	}
	if err != nil {
		s.console.Error("Could not load the book.")
		return
	}
	s.console.Navigate(fmt.Sprintf("/books/%d", id))

	answer, err := s.readLine(fmt.Sprintf("Are you sure you want to delete %q by %s? This action is irreversible. [y/N] ", d.Book.Title, d.Book.Author))
	if err != nil || !slices.Contains([]string{"y", "yes"}, strings.ToLower(answer)) {
		return
	}

	err = s.catalog.Delete(s.ctx, d.Book)
	if errors.Is(err, booksapi.ErrUnauthorized) || errors.Is(err, session.ErrUnauthenticated) {
		fmt.Fprintln(s.out, "Please log in first.")
	}
}

func (s *shell) handleProfile() {
	if !s.loggedIn(profile.Path) {
		return
	}
	s.console.Navigate(profile.Path)
	form := profile.NewForm(s.client, s.session, s.console, s.console, s.logger)
	labels := map[string]string{
		profile.FieldEmail:     "Email",
		profile.FieldFirstName: "First name",
		profile.FieldLastName:  "Last name",
	}

	fields := profile.Fields
	for {
		values := form.Values()
		for _, f := range fields {
			v, err := s.ask(labels[f], values.Get(f))
			if err != nil {
				return
			}
			form.Change(f, v)
		}

		_, err := form.Submit(s.ctx)
		if !errors.Is(err, profile.ErrInvalid) {
			return
		}
		errs := form.Errors()
		renderErrors(s.out, profile.Fields, errs)
		fields = failing(profile.Fields, errs)
	}
}
