package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/inkwell-blog/inkwell/database"
	"github.com/inkwell-blog/inkwell/database/model"
	"github.com/inkwell-blog/inkwell/logger"
	"github.com/inkwell-blog/inkwell/web/session"
)

const (
	LoginPath = "/auth/login"

	MinUsernameLength = 3
	MinPasswordLength = 6
	// MaxPasswordLength is in bytes; bcrypt refuses longer input.
	MaxPasswordLength = 72
)

// UserStore is the persistence the auth service needs. Lookups that match
// nothing return (nil, nil).
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// AuthService handles registration, login and the identity carried by the
// session cookie.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	codec  *session.Codec
}

func NewAuthService(users UserStore, hasher PasswordHasher, codec *session.Codec) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		codec:  codec,
	}
}

// ValidateCredentials checks the length rules shared by login and register.
func ValidateCredentials(username, password string) error {
	verr := &ValidationError{}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		verr.Add("username", "validation.usernameTooShort")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		verr.Add("password", "validation.passwordTooShort")
	} else if len(password) > MaxPasswordLength {
		verr.Add("password", "validation.passwordTooLong")
	}
	return verr.OrNil()
}

// Register creates a new user. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	return registerUser(ctx, s.users, s.hasher, username, password)
}

func registerUser(ctx context.Context, users UserStore, hasher PasswordHasher, username, password string) (*model.User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	existing, err := users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", ErrInfrastructure, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("username %q: %w", username, ErrConflict)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", ErrInfrastructure, err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := users.Create(ctx, user); err != nil {
		if database.IsDuplicate(err) {
			return nil, fmt.Errorf("username %q: %w", username, ErrConflict)
		}
		return nil, fmt.Errorf("%w: create user: %v", ErrInfrastructure, err)
	}
	logger.Infof("registered user %s", user.Id)
	return user, nil
}

// Login returns ErrNotFound for an unknown username and for a wrong password
// alike.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", ErrInfrastructure, err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrNotFound
	}
	return user, nil
}

// CurrentUserID returns the user id in the request's session, if any.
func (s *AuthService) CurrentUserID(r *http.Request) (string, bool) {
	userID, ok := s.codec.Read(r)[session.KeyUserID]
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// RequireUserID is CurrentUserID for write paths. When nobody is logged in it
// returns an *UnauthenticatedError pointing back at redirectTo, or at the
// requested path when redirectTo is empty.
func (s *AuthService) RequireUserID(r *http.Request, redirectTo string) (string, error) {
	if userID, ok := s.CurrentUserID(r); ok {
		return userID, nil
	}
	if redirectTo == "" {
		redirectTo = r.URL.Path
	}
	return "", &UnauthenticatedError{RedirectTo: redirectTo}
}

// CurrentUser loads the logged in user. It returns (nil, nil) for anonymous
// requests and for sessions whose user is gone. A store failure invalidates
// the session: the returned *ForcedLogoutError carries the logout directive.
func (s *AuthService) CurrentUser(ctx context.Context, r *http.Request) (*model.User, error) {
	userID, ok := s.CurrentUserID(r)
	if !ok {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		logger.Warning("dropping session, user lookup failed:", err)
		return nil, &ForcedLogoutError{
			Err:    fmt.Errorf("%w: find user: %v", ErrInfrastructure, err),
			Logout: s.Logout(r),
		}
	}
	return user, nil
}

// CreateSession issues a fresh cookie holding only userID.
func (s *AuthService) CreateSession(userID, redirectTo string) (*Redirect, error) {
	cookie, err := s.codec.Cookie(map[string]string{session.KeyUserID: userID})
	if err != nil {
		return nil, fmt.Errorf("%w: encode session: %v", ErrInfrastructure, err)
	}
	return &Redirect{
		Location: SafeRedirect(redirectTo),
		Cookie:   cookie,
	}, nil
}

// Logout clears the session cookie and sends the client to the login page.
func (s *AuthService) Logout(r *http.Request) *Redirect {
	return &Redirect{
		Location: LoginPath,
		Cookie:   s.codec.Expired(),
	}
}

// SafeRedirect keeps local absolute paths and maps everything else to "/".
func SafeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
