// Package store defines the ports for entry and user persistence.
// Implementations live in store/memory (in-process) and storage (SQLite).
package store

import (
	"context"
	"errors"
	"time"

	"tracker/internal/core"
)

var (
	ErrNotFound     = errors.New("entry not found")
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// User is an account in the identity store. PasswordHash is a bcrypt hash,
// never the plaintext password.
type User struct {
	Email        string
	DisplayName  string
	PhotoURL     string
	PasswordHash string
	CreatedAt    time.Time
}

// DailySummary is one row of the worker-maintained reporting table:
// totals for one owner on one calendar day.
type DailySummary struct {
	OwnerEmail   string     `json:"ownerEmail"`
	Day          time.Time  `json:"day"`
	TotalIncome  core.Money `json:"totalIncome"`
	TotalExpense core.Money `json:"totalExpense"`
	Balance      core.Money `json:"balance"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Ports for outbound adapters.
type (
	// EntryStore persists entries. The ownership predicate lives in the
	// queries themselves; callers never fetch foreign entries to filter
	// client-side.
	EntryStore interface {
		// Create persists a new entry and returns its assigned id.
		Create(ctx context.Context, e core.Entry) (id string, err error)

		// Get returns a single entry, ErrNotFound if it does not exist.
		Get(ctx context.Context, id string) (core.Entry, error)

		// Update rewrites the editable fields of an entry. Owner and
		// creation time are never touched. Last write wins.
		Update(ctx context.Context, id string, u core.EntryUpdate) error

		// Delete removes an entry permanently. ErrNotFound if absent.
		Delete(ctx context.Context, id string) error

		// ListByOwner returns the owner's entries ordered by descending
		// creation time, newest first.
		ListByOwner(ctx context.Context, owner string) ([]core.Entry, error)

		// Owners returns every distinct owner with at least one entry.
		Owners(ctx context.Context) ([]string, error)
	}

	UserStore interface {
		// CreateUser registers a user; ErrEmailTaken on duplicate email.
		CreateUser(ctx context.Context, u User) error

		// GetUserByEmail returns ErrUserNotFound when no account exists.
		GetUserByEmail(ctx context.Context, email string) (User, error)
	}

	// SummaryStore holds the daily reporting rows the worker maintains.
	SummaryStore interface {
		UpsertDailySummary(ctx context.Context, s DailySummary) error
		ListDailySummaries(ctx context.Context, owner string) ([]DailySummary, error)
	}
)
