package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryExpense Category = "expense"
	CategoryIncome  Category = "income"
)

// DisplayDateLayout is the denormalized date format stored alongside the
// structured date, kept for clients that render it verbatim.
const DisplayDateLayout = "02/01/2006"

type (
	Category string

	Money struct {
		Cents int64 `json:"cents"`
	}

	// Entry is one income or expense record. ID and CreatedAt are assigned
	// by the store on creation; OwnerEmail never changes afterwards.
	Entry struct {
		ID          string    `json:"id"`
		OwnerEmail  string    `json:"ownerEmail"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    Category  `json:"category"`
		OccurredOn  time.Time `json:"occurredOn"`
		DisplayDate string    `json:"displayDate"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// EntryUpdate carries the rewritable fields of an entry. Owner and
	// creation time are not part of it on purpose.
	EntryUpdate struct {
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    Category  `json:"category"`
		OccurredOn  time.Time `json:"occurredOn"`
		DisplayDate string    `json:"displayDate"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyOwner         = errors.New("empty owner")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrZeroDate           = errors.New("date cannot be zero")
)

func (c Category) Validate() error {
	switch c {
	case CategoryExpense, CategoryIncome:
		return nil
	default:
		return ErrInvalidCategory
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.OwnerEmail) == "" {
		return ErrEmptyOwner
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if e.OccurredOn.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (u EntryUpdate) Validate() error {
	if len(strings.TrimSpace(u.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(u.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := u.Amount.Validate(); err != nil {
		return err
	}
	if err := u.Category.Validate(); err != nil {
		return err
	}
	if u.OccurredOn.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// FormatDisplayDate renders the user-facing date string for a calendar date.
func FormatDisplayDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}
