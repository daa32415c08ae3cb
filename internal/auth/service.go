// Package auth logs users in and out against the backend and keeps the
// session store in step.
package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"bookshelf/internal/platform/booksapi"
	"bookshelf/internal/session"
	"bookshelf/internal/user"
	"bookshelf/internal/validation"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects the
	// email/password pair or the registration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalid is returned when the submitted values fail validation.
	ErrInvalid = errors.New("invalid form values")
)

// Backend is the part of the books API used to authenticate.
type Backend interface {
	Login(ctx context.Context, creds booksapi.Credentials) (booksapi.AuthResponse, error)
	Register(ctx context.Context, reg booksapi.Registration) (booksapi.AuthResponse, error)
}

// LoginInput is the validated login form.
type LoginInput struct {
	Email    string `form:"email" validate:"required,email" msg:"Please enter a valid email address."`
	Password string `form:"password" validate:"required" msg:"Please enter your password."`
}

// RegisterInput is the validated registration form.
type RegisterInput struct {
	Email     string `form:"email" validate:"required,email" msg:"Please enter a valid email address."`
	Password  string `form:"password" validate:"required,min=4" msg:"Please choose a password of at least 4 characters."`
	FirstName string `form:"firstName" validate:"required" msg:"Please tell us your first name."`
	LastName  string `form:"lastName" validate:"required" msg:"Please tell us your last name."`
}

// Service logs users in and out and registers new accounts.
type Service struct {
	backend Backend
	session *session.Store
	logger  *zap.Logger
}

// NewService creates an auth service. A nil logger discards logs.
func NewService(backend Backend, sess *session.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, session: sess, logger: logger}
}

// Login validates raw, logs in and starts a session. Field errors are
// returned together with ErrInvalid.
func (s *Service) Login(ctx context.Context, raw validation.FormValues) (user.User, validation.Errors, error) {
	in, errs := validation.Decode[LoginInput](raw)
	if !errs.Valid() {
		return user.User{}, errs, ErrInvalid
	}

	res, err := s.backend.Login(ctx, booksapi.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return user.User{}, nil, s.rejected("login", err)
	}

	s.session.Login(res.User, res.AccessToken)
	s.logger.Info("logged in", zap.Int("user_id", res.User.ID))
	return res.User, nil, nil
}

// Register validates raw, creates the account and starts a session.
func (s *Service) Register(ctx context.Context, raw validation.FormValues) (user.User, validation.Errors, error) {
	in, errs := validation.Decode[RegisterInput](raw)
	if !errs.Valid() {
		return user.User{}, errs, ErrInvalid
	}

	res, err := s.backend.Register(ctx, booksapi.Registration{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		return user.User{}, nil, s.rejected("register", err)
	}

	s.session.Login(res.User, res.AccessToken)
	s.logger.Info("registered", zap.Int("user_id", res.User.ID))
	return res.User, nil, nil
}

// Logout ends the session.
func (s *Service) Logout() {
	s.session.Logout()
}

func (s *Service) rejected(op string, err error) error {
	var statusErr *booksapi.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
		return &RejectedError{Message: statusErr.Message}
	}
	if errors.Is(err, booksapi.ErrUnauthorized) {
		return &RejectedError{Message: "Incorrect email or password"}
	}
	s.logger.Warn(op+" failed", zap.Error(err))
	return err
}

// RejectedError carries the backend's reason for refusing credentials.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "invalid credentials: " + e.Message
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrInvalidCredentials
}
