// Package bookform drives the add and edit book forms: field state,
// validation, review reconciliation and the submit round trip.
package bookform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bookshelf/internal/book"
	"bookshelf/internal/platform/booksapi"
	"bookshelf/internal/review"
	"bookshelf/internal/session"
	"bookshelf/internal/ui"
	"bookshelf/internal/validation"
)

var (
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// submit has not returned yet.
	ErrSubmitInFlight = errors.New("submit already in progress")
	// ErrInvalid is returned when the values fail validation. The field
	// messages are available from Errors.
	ErrInvalid = errors.New("invalid form values")
	// ErrNotLoaded is returned when an edit form is submitted before its
	// book was loaded.
	ErrNotLoaded = errors.New("book not loaded")
)

// Field names.
const (
	FieldTitle  = "title"
	FieldAuthor = "author"
	FieldYear   = "year"
	FieldGenre  = "genre"
	FieldCover  = "cover"
	FieldRating = "rating"
	FieldReview = "review"
)

// Fields lists the form fields in display order.
var Fields = []string{FieldTitle, FieldAuthor, FieldYear, FieldGenre, FieldCover, FieldRating, FieldReview}

// Input is the validated book form.
type Input struct {
	Title  string `form:"title" validate:"required" msg:"Title is required."`
	Author string `form:"author" validate:"required" msg:"Author is required."`
	Year   int    `form:"year" validate:"gte=1000,lte=9999" msg:"Please specify a valid release year."`
	Genre  string `form:"genre" validate:"required" msg:"Genre is required."`
	Cover  string `form:"cover" validate:"required,absurl" msg:"Please enter a valid URL for the book's cover."`
	Rating int    `form:"rating" validate:"gte=1,lte=5" msg:"Please select rating"`
	Review string `form:"review"`
}

// Validate decodes and validates raw book form values.
func Validate(raw validation.FormValues) (Input, validation.Errors) {
	return validation.Decode[Input](raw)
}

// Mode tells an add form from an edit form.
type Mode int

const (
	ModeAdd Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "add"
}

// State is the lifecycle of a form.
type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateSucceeded
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	default:
		return "editing"
	}
}

// Deps are the collaborators of a form.
type Deps struct {
	Store     BookStore
	Session   *session.Store
	Notifier  ui.Notifier
	Navigator ui.Navigator
	Logger    *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Form is one open add or edit form. Its methods are safe for concurrent
// use; at most one Submit runs at a time.
type Form struct {
	deps   Deps
	mode   Mode
	bookID int

	view       ui.View
	submitting atomic.Bool

	mu       sync.Mutex
	state    State
	values   validation.FormValues
	errs     validation.Errors
	failed   bool
	loaded   bool
	original book.Book
	reviewID int
}

// NewAddForm opens an empty add form.
func NewAddForm(deps Deps) *Form {
	return newForm(deps, ModeAdd, 0)
}

// NewEditForm opens an edit form for book id. Load must succeed before the
// form can be submitted.
func NewEditForm(deps Deps, id int) *Form {
	return newForm(deps, ModeEdit, id)
}

func newForm(deps Deps, mode Mode, id int) *Form {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	values := validation.FormValues{}
	for _, f := range Fields {
		values.Set(f, "")
	}
	return &Form{deps: deps, mode: mode, bookID: id, values: values}
}

// Mode returns whether this is an add or edit form.
func (f *Form) Mode() Mode { return f.mode }

// Path is the view this form lives at, used as the return path after login.
func (f *Form) Path() string {
	if f.mode == ModeEdit {
		return fmt.Sprintf("/books/%d/edit", f.bookID)
	}
	return "/books/add"
}

// State returns the current lifecycle state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Values returns a copy of the current field values.
func (f *Form) Values() validation.FormValues {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Clone()
}

// Errors returns a copy of the field errors shown, nil when there are none.
func (f *Form) Errors() validation.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs.Clone()
}

// Book returns the book being edited as loaded, with any local review
// deletion applied.
func (f *Form) Book() (book.Book, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.original, f.loaded
}

// Load fetches the book of an edit form and fills the fields with its
// values and the acting user's review. A result that arrives after the form
// was closed or reloaded is dropped with ui.ErrStale.
func (f *Form) Load(ctx context.Context) error {
	if f.mode != ModeEdit {
		return nil
	}
	actor, _, ok := f.deps.Session.Current()
	if !ok {
		f.deps.Navigator.RedirectToLogin(f.Path())
		return session.ErrUnauthenticated
	}

	ctx, gen := f.view.Begin(ctx)
	defer f.view.Finish(gen)

	b, err := f.deps.Store.GetBook(ctx, f.bookID)
	if !f.view.Current(gen) {
		return ui.ErrStale
	}
	if err != nil {
		if errors.Is(err, booksapi.ErrNotFound) {
			return fmt.Errorf("%w: %d", book.ErrNotFound, f.bookID)
		}
		f.deps.Logger.Warn("load book failed", zap.Int("book_id", f.bookID), zap.Error(err))
		return err
	}

	values := validation.FormValues{}
	values.Set(FieldTitle, b.Title)
	values.Set(FieldAuthor, b.Author)
	values.Set(FieldYear, strconv.Itoa(b.Year))
	values.Set(FieldGenre, b.Genre)
	values.Set(FieldCover, b.Cover)
	values.Set(FieldRating, "")
	if len(b.Ratings) > 0 {
		values.Set(FieldRating, strconv.Itoa(b.Ratings[0]))
	}
	values.Set(FieldReview, "")
	reviewID := 0
	if r, ok := b.ReviewBy(actor.ID); ok {
		values.Set(FieldReview, r.Comment)
		reviewID = r.ID
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.original = b
	f.values = values
	f.reviewID = reviewID
	f.errs = nil
	f.failed = false
	f.loaded = true
	f.state = StateEditing
	return nil
}

// Change sets one field. Once a submit has failed validation, every change
// re-validates the whole form.
func (f *Form) Change(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values.Set(field, value)
	if f.state == StateSucceeded {
		f.state = StateEditing
	}
	if f.failed {
		_, f.errs = Validate(f.values)
	}
}

// DeleteReview drops the acting user's review from the loaded book and
// clears the review field. Nothing is sent until Submit.
func (f *Form) DeleteReview() {
	actor := f.deps.Session.User()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		f.original.Reviews = review.Remove(f.original.Reviews, actor.ID)
	}
	f.reviewID = 0
	f.values.Set(FieldReview, "")
	if f.failed {
		_, f.errs = Validate(f.values)
	}
}

// Cancel abandons the form and returns to the previous view.
func (f *Form) Cancel() {
	f.view.Leave()
	f.deps.Navigator.Back()
}

// Submit validates the form and saves it. On success the user is notified
// and sent to the book's page; the saved book is returned.
func (f *Form) Submit(ctx context.Context) (book.Book, error) {
	if !f.submitting.CompareAndSwap(false, true) {
		return book.Book{}, ErrSubmitInFlight
	}
	defer f.submitting.Store(false)

	now := f.deps.Now()
	if err := f.deps.Session.Authorize(now); err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			f.deps.Session.Logout()
		}
		f.deps.Navigator.RedirectToLogin(f.Path())
		return book.Book{}, err
	}
	actor, token, _ := f.deps.Session.Current()

	f.mu.Lock()
	if f.mode == ModeEdit && !f.loaded {
		f.mu.Unlock()
		return book.Book{}, ErrNotLoaded
	}
	in, errs := Validate(f.values)
	if !errs.Valid() {
		f.errs = errs
		f.failed = true
		f.state = StateEditing
		f.mu.Unlock()
		return book.Book{}, ErrInvalid
	}
	f.errs = nil
	f.state = StateSubmitting
	var existing []book.Review
	if f.mode == ModeEdit {
		existing = f.original.Reviews
	}
	reconciled := review.Reconcile(review.Input{
		Reviews:      existing,
		Actor:        actor,
		Rating:       in.Rating,
		Text:         in.Review,
		EditReviewID: f.reviewID,
		Now:          now,
	})
	f.mu.Unlock()

	payload := book.Payload{
		Title:   in.Title,
		Author:  in.Author,
		Year:    in.Year,
		Genre:   in.Genre,
		Cover:   in.Cover,
		UserID:  actor.ID,
		Ratings: reconciled.Ratings,
		Reviews: reconciled.Reviews,
	}

	var (
		saved book.Book
		err   error
	)
	if f.mode == ModeEdit {
		saved, err = f.deps.Store.UpdateBook(ctx, token, f.bookID, payload)
	} else {
		saved, err = f.deps.Store.CreateBook(ctx, token, payload)
	}
	if err != nil {
		f.setState(StateEditing)
		return book.Book{}, f.fail(err)
	}
	if saved.ID == 0 {
		saved.ID = f.bookID
	}

	f.mu.Lock()
	f.state = StateSucceeded
	f.failed = false
	if f.mode == ModeEdit {
		f.original = saved
	}
	f.mu.Unlock()

	if f.mode == ModeEdit {
		f.deps.Notifier.Success(fmt.Sprintf("You have successfully updated the book: \"%s\" by \"%s\"", payload.Title, payload.Author))
	} else {
		f.deps.Notifier.Success(fmt.Sprintf("You have successfully added the book: \"%s\" by \"%s\"", payload.Title, payload.Author))
	}
	f.deps.Navigator.Navigate(fmt.Sprintf("/books/%d", saved.ID))
	return saved, nil
}

func (f *Form) setState(s State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

func (f *Form) fail(err error) error {
	if errors.Is(err, booksapi.ErrUnauthorized) {
		f.deps.Session.Logout()
		f.deps.Navigator.RedirectToLogin(f.Path())
		return err
	}

	f.deps.Logger.Warn("save book failed",
		zap.String("mode", f.mode.String()),
		zap.Int("book_id", f.bookID),
		zap.Error(err),
	)
	if f.mode == ModeEdit {
		f.deps.Notifier.Error("Failed to update the book!")
	} else {
		f.deps.Notifier.Error("Failed to add the book!")
	}
	return err
}
