// Package auth is the identity provider: account registration, password
// sign-in, and JWT session handling. The resolved identity is handed to other
// components explicitly, never through a package-level global.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tracker/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingFields      = errors.New("all fields are mandatory")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CurrentUser is the identity attached to a session, matching what clients
// display: email (the scoping key), display name, and avatar URL.
type CurrentUser struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      CurrentUser `json:"user"`
}

// Service issues and validates sessions backed by a user store.
type Service struct {
	users      store.UserStore
	secret     string
	tokenTTL   time.Duration
	bcryptCost int
}

func NewService(users store.UserStore, secret string, tokenTTL time.Duration, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		secret:     secret,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// SignUp registers a new account and returns a live session for it.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	displayName = strings.TrimSpace(displayName)

	if email == "" || password == "" || displayName == "" {
		return Session{}, ErrMissingFields
	}
	if !emailRe.MatchString(email) {
		return Session{}, ErrInvalidEmail
	}
	if len(password) < 6 {
		return Session{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	u := store.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return Session{}, err
	}

	slog.InfoContext(ctx, "User signed up", "email", email)
	return s.newSession(CurrentUser{Email: email, DisplayName: displayName})
}

// SignIn validates credentials and returns a session. Bad credentials come
// back as ErrInvalidCredentials regardless of whether the account exists.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Session{}, ErrMissingFields
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	slog.InfoContext(ctx, "User signed in", "email", email)
	return s.newSession(CurrentUser{Email: u.Email, DisplayName: u.DisplayName, PhotoURL: u.PhotoURL})
}

// Verify parses a bearer token and returns the identity it carries.
func (s *Service) Verify(tokenStr string) (CurrentUser, error) {
	claims, err := ParseToken(s.secret, tokenStr)
	if err != nil {
		return CurrentUser{}, err
	}
	return CurrentUser{
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
	}, nil
}

func (s *Service) newSession(u CurrentUser) (Session, error) {
	token, err := GenerateToken(s.secret, u, s.tokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{
		Token:     token,
		ExpiresAt: time.Now().Add(s.tokenTTL),
		User:      u,
	}, nil
}
