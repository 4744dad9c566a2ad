package core

import (
	"testing"
	"time"
)

func entry(owner string, cat Category, cents int64, createdAt time.Time) Entry {
	return Entry{
		ID:          owner + "-" + string(cat),
		OwnerEmail:  owner,
		Description: "test entry",
		Amount:      Money{Cents: cents},
		Category:    cat,
		OccurredOn:  createdAt,
		CreatedAt:   createdAt,
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		entry("a@example.com", CategoryIncome, 10000, base),
		entry("a@example.com", CategoryExpense, 4000, base.Add(time.Minute)),
	}

	s := Summarize(entries)
	if s.TotalIncome.Cents != 10000 {
		t.Errorf("TotalIncome = %d, want 10000", s.TotalIncome.Cents)
	}
	if s.TotalExpense.Cents != 4000 {
		t.Errorf("TotalExpense = %d, want 4000", s.TotalExpense.Cents)
	}
	if s.Balance.Cents != 6000 {
		t.Errorf("Balance = %d, want 6000", s.Balance.Cents)
	}
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	base := time.Now()
	sets := [][]Entry{
		nil,
		{entry("a", CategoryIncome, 1, base)},
		{entry("a", CategoryExpense, 999999, base)},
		{
			entry("a", CategoryIncome, 12345, base),
			entry("a", CategoryExpense, 678, base),
			entry("a", CategoryIncome, 1, base),
			entry("a", CategoryExpense, 99999999, base),
		},
	}
	for i, set := range sets {
		s := Summarize(set)
		if s.Balance.Cents != s.TotalIncome.Cents-s.TotalExpense.Cents {
			t.Errorf("set %d: balance %d != income %d - expense %d",
				i, s.Balance.Cents, s.TotalIncome.Cents, s.TotalExpense.Cents)
		}
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalIncome.Cents != 0 || s.TotalExpense.Cents != 0 || s.Balance.Cents != 0 {
		t.Errorf("empty set should yield zeros, got %+v", s)
	}
	snap := BuildSnapshot(nil)
	if !snap.Empty() {
		t.Error("snapshot of empty set should report Empty")
	}
}

func TestSummarizeCoercesBadAmounts(t *testing.T) {
	// Amounts that slipped in below zero count as zero, never as an error.
	entries := []Entry{
		entry("a", CategoryIncome, -500, time.Now()),
		entry("a", CategoryIncome, 100, time.Now()),
	}
	s := Summarize(entries)
	if s.TotalIncome.Cents != 100 {
		t.Errorf("TotalIncome = %d, want 100", s.TotalIncome.Cents)
	}
}

func TestFilterByOwner(t *testing.T) {
	base := time.Now()
	entries := []Entry{
		entry("a@example.com", CategoryIncome, 10000, base),
		entry("a@example.com", CategoryExpense, 4000, base),
		entry("b@example.com", CategoryIncome, 99900, base),
	}

	filtered := FilterByOwner(entries, "a@example.com")
	if len(filtered) != 2 {
		t.Fatalf("filtered len = %d, want 2", len(filtered))
	}
	for _, e := range filtered {
		if e.OwnerEmail != "a@example.com" {
			t.Errorf("foreign entry leaked into filtered set: %s", e.OwnerEmail)
		}
	}

	// Idempotence: filtering the filtered set again changes nothing.
	again := FilterByOwner(filtered, "a@example.com")
	if len(again) != len(filtered) {
		t.Errorf("second filter changed length: %d != %d", len(again), len(filtered))
	}

	// Totals over the filtered set exclude owner B entirely.
	s := Summarize(filtered)
	if s.TotalIncome.Cents != 10000 || s.TotalExpense.Cents != 4000 || s.Balance.Cents != 6000 {
		t.Errorf("summary over filtered set = %+v, want 10000/4000/6000", s)
	}
}

func TestBuildSnapshotPreview(t *testing.T) {
	base := time.Now()
	var entries []Entry
	for i := 0; i < 5; i++ {
		e := entry("a", CategoryExpense, int64(100*(i+1)), base.Add(time.Duration(-i)*time.Minute))
		e.ID = string(rune('a' + i))
		entries = append(entries, e)
	}

	snap := BuildSnapshot(entries)
	if len(snap.Entries) != 5 {
		t.Errorf("full list len = %d, want 5", len(snap.Entries))
	}
	if len(snap.Recent) != PreviewSize {
		t.Fatalf("preview len = %d, want %d", len(snap.Recent), PreviewSize)
	}
	// Preview keeps the head of the ordered list.
	for i := 0; i < PreviewSize; i++ {
		if snap.Recent[i].ID != snap.Entries[i].ID {
			t.Errorf("preview[%d] = %s, want %s", i, snap.Recent[i].ID, snap.Entries[i].ID)
		}
	}

	short := BuildSnapshot(entries[:2])
	if len(short.Recent) != 2 {
		t.Errorf("preview of short list len = %d, want 2", len(short.Recent))
	}
}
