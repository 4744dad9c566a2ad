package worker

import (
	"context"
	"testing"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/store"
	"tracker/internal/store/memory"
)

func addEntry(t *testing.T, s store.EntryStore, owner string, cents int64, cat core.Category, day time.Time) {
	t.Helper()
	_, err := s.Create(context.Background(), core.Entry{
		OwnerEmail:  owner,
		Description: "entry",
		Amount:      core.Money{Cents: cents},
		Category:    cat,
		OccurredOn:  day,
		DisplayDate: core.FormatDisplayDate(day),
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func findDay(rows []store.DailySummary, want time.Time) (store.DailySummary, bool) {
	for _, r := range rows {
		if r.Day.Equal(want) {
			return r, true
		}
	}
	return store.DailySummary{}, false
}

func TestRecomputeOwnerGroupsByDay(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	owner := "anna@example.com"

	addEntry(t, s, owner, 100000, core.CategoryIncome, day(2026, 3, 1))
	addEntry(t, s, owner, 2500, core.CategoryExpense, day(2026, 3, 1))
	addEntry(t, s, owner, 4000, core.CategoryExpense, day(2026, 3, 2))
	addEntry(t, s, "other@example.com", 999, core.CategoryExpense, day(2026, 3, 1))

	w := NewSummaryWorker(s, s, nil, time.Hour)
	if err := w.RecomputeOwner(ctx, owner); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	rows, err := s.ListDailySummaries(ctx, owner)
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 day rows, got %d", len(rows))
	}

	first, ok := findDay(rows, day(2026, 3, 1))
	if !ok {
		t.Fatal("missing row for 2026-03-01")
	}
	if first.TotalIncome.Cents != 100000 || first.TotalExpense.Cents != 2500 || first.Balance.Cents != 97500 {
		t.Errorf("unexpected totals for day one: %+v", first)
	}

	second, ok := findDay(rows, day(2026, 3, 2))
	if !ok {
		t.Fatal("missing row for 2026-03-02")
	}
	if second.Balance.Cents != -4000 {
		t.Errorf("balance=%d, want -4000", second.Balance.Cents)
	}
}

func TestRecomputeZeroesAbandonedDays(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	owner := "anna@example.com"

	id, err := s.Create(ctx, core.Entry{
		OwnerEmail:  owner,
		Description: "only entry that day",
		Amount:      core.Money{Cents: 5000},
		Category:    core.CategoryExpense,
		OccurredOn:  day(2026, 3, 1),
		DisplayDate: "01/03/2026",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	w := NewSummaryWorker(s, s, nil, time.Hour)
	if err := w.RecomputeOwner(ctx, owner); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := w.RecomputeOwner(ctx, owner); err != nil {
		t.Fatalf("recompute after delete: %v", err)
	}

	rows, err := s.ListDailySummaries(ctx, owner)
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	row, ok := findDay(rows, day(2026, 3, 1))
	if !ok {
		t.Fatal("expected the day row to remain")
	}
	if row.TotalIncome.Cents != 0 || row.TotalExpense.Cents != 0 || row.Balance.Cents != 0 {
		t.Errorf("expected a zeroed row, got %+v", row)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	owner := "anna@example.com"
	addEntry(t, s, owner, 1000, core.CategoryIncome, day(2026, 3, 1))

	w := NewSummaryWorker(s, s, nil, time.Hour)
	for i := 0; i < 3; i++ {
		if err := w.RecomputeOwner(ctx, owner); err != nil {
			t.Fatalf("recompute %d: %v", i, err)
		}
	}

	rows, err := s.ListDailySummaries(ctx, owner)
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after repeated recomputes, got %d", len(rows))
	}
	if rows[0].TotalIncome.Cents != 1000 {
		t.Errorf("income=%d, want 1000", rows[0].TotalIncome.Cents)
	}
}

func TestHandleEntryEvent(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	owner := "anna@example.com"
	addEntry(t, s, owner, 1000, core.CategoryIncome, day(2026, 3, 1))

	w := NewSummaryWorker(s, s, nil, time.Hour)

	ev := amqp.NewEntryEvent(amqp.EventEntryCreated, "some-id", owner, day(2026, 3, 1))
	if err := w.HandleEntryEvent(ctx, ev); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	rows, err := s.ListDailySummaries(ctx, owner)
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	// ownerless events are dropped, not retried
	if err := w.HandleEntryEvent(ctx, amqp.NewEntryEvent(amqp.EventEntryDeleted, "x", "", time.Time{})); err != nil {
		t.Errorf("ownerless event should be skipped, got %v", err)
	}
}

func TestReconcileAllCoversEveryOwner(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	addEntry(t, s, "anna@example.com", 1000, core.CategoryIncome, day(2026, 3, 1))
	addEntry(t, s, "other@example.com", 2000, core.CategoryExpense, day(2026, 3, 2))

	w := NewSummaryWorker(s, s, nil, time.Hour)
	if err := w.ReconcileAll(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	for _, owner := range []string{"anna@example.com", "other@example.com"} {
		rows, err := s.ListDailySummaries(ctx, owner)
		if err != nil {
			t.Fatalf("list summaries for %s: %v", owner, err)
		}
		if len(rows) != 1 {
			t.Errorf("owner %s: expected 1 row, got %d", owner, len(rows))
		}
	}
}
