package core

import (
	"strings"
	"testing"
	"time"
)

func validEntry() Entry {
	return Entry{
		ID:          "abc",
		OwnerEmail:  "a@example.com",
		Description: "groceries",
		Amount:      Money{Cents: 1250},
		Category:    CategoryExpense,
		OccurredOn:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		DisplayDate: "14/03/2025",
	}
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Entry)
		wantErr error
	}{
		{"valid", func(e *Entry) {}, nil},
		{"empty owner", func(e *Entry) { e.OwnerEmail = "" }, ErrEmptyOwner},
		{"blank owner", func(e *Entry) { e.OwnerEmail = "   " }, ErrEmptyOwner},
		{"empty description", func(e *Entry) { e.Description = "" }, ErrEmptyDescription},
		{"blank description", func(e *Entry) { e.Description = "  \t " }, ErrEmptyDescription},
		{"zero amount", func(e *Entry) { e.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(e *Entry) { e.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"bad category", func(e *Entry) { e.Category = "transfer" }, ErrInvalidCategory},
		{"empty category", func(e *Entry) { e.Category = "" }, ErrInvalidCategory},
		{"zero date", func(e *Entry) { e.OccurredOn = time.Time{} }, ErrZeroDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry()
			tt.mutate(&e)
			if err := e.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEntryValidateLongDescription(t *testing.T) {
	e := validEntry()
	e.Description = strings.Repeat("x", 201)
	if err := e.Validate(); err == nil {
		t.Error("expected error for description over 200 characters")
	}
	e.Description = strings.Repeat("x", 200)
	if err := e.Validate(); err != nil {
		t.Errorf("200-character description should be valid: %v", err)
	}
}

func TestEntryUpdateValidate(t *testing.T) {
	u := EntryUpdate{
		Description: "rent",
		Amount:      Money{Cents: 90000},
		Category:    CategoryExpense,
		OccurredOn:  time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := u.Validate(); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}
	u.Category = "savings"
	if err := u.Validate(); err != ErrInvalidCategory {
		t.Errorf("got %v, want ErrInvalidCategory", err)
	}
}

func TestFormatDisplayDate(t *testing.T) {
	d := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	if got := FormatDisplayDate(d); got != "09/01/2025" {
		t.Errorf("FormatDisplayDate = %q, want 09/01/2025", got)
	}
}
