package service

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("already exists")
	ErrUnauthenticated = errors.New("not logged in")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInfrastructure  = errors.New("infrastructure failure")
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// ValidationError maps field names to translation keys of their messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add records msg for field unless msg is empty.
func (e *ValidationError) Add(field, msg string) {
	if msg == "" {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// OrNil returns e only if at least one field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Redirect is a response directive: send the client to Location, setting
// Cookie when present.
type Redirect struct {
	Location string
	Cookie   *http.Cookie
}

// UnauthenticatedError is returned by gates that need a logged in user.
type UnauthenticatedError struct {
	RedirectTo string
}

func (e *UnauthenticatedError) Error() string {
	return "login required for " + e.RedirectTo
}

func (e *UnauthenticatedError) Unwrap() error {
	return ErrUnauthenticated
}

// Location is the login page carrying the path to come back to.
func (e *UnauthenticatedError) Location() string {
	q := url.Values{}
	q.Set("redirectTo", e.RedirectTo)
	return LoginPath + "?" + q.Encode()
}

// ForcedLogoutError wraps an infrastructure failure hit while resolving the
// current user. The session is not trusted any more and Logout must be sent.
type ForcedLogoutError struct {
	Err    error
	Logout *Redirect
}

func (e *ForcedLogoutError) Error() string {
	return "session dropped: " + e.Err.Error()
}

func (e *ForcedLogoutError) Unwrap() error {
	return e.Err
}
