// Package profile drives the form a logged-in user edits their own name
// and email with.
package profile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"bookshelf/internal/platform/booksapi"
	"bookshelf/internal/session"
	"bookshelf/internal/ui"
	"bookshelf/internal/user"
	"bookshelf/internal/validation"
)

// Path is where the profile form lives.
const Path = "/profile"

var (
	// ErrSubmitInFlight is returned by Submit while an earlier submit runs.
	ErrSubmitInFlight = errors.New("submit already in progress")
	// ErrInvalid means the values failed validation; see Errors.
	ErrInvalid = errors.New("invalid form values")
)

// Field names.
const (
	FieldEmail     = "email"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
)

// Fields lists the form fields in display order.
var Fields = []string{FieldEmail, FieldFirstName, FieldLastName}

// Input is the validated profile form.
type Input struct {
	Email     string `form:"email" validate:"required,email" msg:"Please enter a valid email address."`
	FirstName string `form:"firstName" validate:"required" msg:"Please tell us your first name."`
	LastName  string `form:"lastName" validate:"required" msg:"Please tell us your last name."`
}

// Backend is the part of the books API the profile form writes to.
type Backend interface {
	UpdateUser(ctx context.Context, token string, id int, p user.Profile) (user.User, error)
}

// Form is the profile edit form of the logged-in user.
type Form struct {
	backend   Backend
	session   *session.Store
	notifier  ui.Notifier
	navigator ui.Navigator
	logger    *zap.Logger
	now       func() time.Time

	submitting atomic.Bool

	mu     sync.Mutex
	values validation.FormValues
	errs   validation.Errors
}

// NewForm opens the profile form filled with the session user.
func NewForm(backend Backend, sess *session.Store, notifier ui.Notifier, navigator ui.Navigator, logger *zap.Logger) *Form {
	if logger == nil {
		logger = zap.NewNop()
	}
	u := sess.User()
	values := validation.FormValues{}
	values.Set(FieldEmail, u.Email)
	values.Set(FieldFirstName, u.FirstName)
	values.Set(FieldLastName, u.LastName)
	return &Form{
		backend:   backend,
		session:   sess,
		notifier:  notifier,
		navigator: navigator,
		logger:    logger,
		now:       time.Now,
		values:    values,
	}
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

// Change sets one field and hides its error until the next submit.
func (f *Form) Change(field, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values.Set(field, value)
	delete(f.errs, field)
	if len(f.errs) == 0 {
		f.errs = nil
	}
}

// Cancel leaves the form for the home view.
func (f *Form) Cancel() {
	f.navigator.Navigate("/")
}

// Submit saves the profile and refreshes the session user from the
// backend's answer.
func (f *Form) Submit(ctx context.Context) (user.User, error) {
	if !f.submitting.CompareAndSwap(false, true) {
		return user.User{}, ErrSubmitInFlight
	}
	defer f.submitting.Store(false)

	if err := f.session.Authorize(f.now()); err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			f.session.Logout()
		}
		f.notifier.Error("You are not authenticated!")
		f.navigator.RedirectToLogin(Path)
		return user.User{}, err
	}
	current, token, _ := f.session.Current()

	f.mu.Lock()
	in, errs := validation.Decode[Input](f.values)
	f.errs = errs
	f.mu.Unlock()
	if !errs.Valid() {
		return user.User{}, ErrInvalid
	}

	updated, err := f.backend.UpdateUser(ctx, token, current.ID, user.Profile{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		f.logger.Warn("update profile failed", zap.Int("user_id", current.ID), zap.Error(err))
		f.notifier.Error("Profile update has failed!")
		if errors.Is(err, booksapi.ErrUnauthorized) {
			f.session.Logout()
			f.navigator.RedirectToLogin(Path)
		}
		return user.User{}, err
	}

	f.session.Login(updated, token)
	f.notifier.Success("Profile updated successfully!")
	f.navigator.Navigate("/")
	return updated, nil
}
