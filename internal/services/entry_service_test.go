package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/cache"
	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"
	"tracker/internal/store/memory"
	"tracker/internal/stream"
)

type fakePublisher struct {
	events []*amqp.EntryEvent
	err    error
}

func (f *fakePublisher) PublishEntryEvent(ctx context.Context, event *amqp.EntryEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func validEntry(owner string) core.Entry {
	return core.Entry{
		OwnerEmail:  owner,
		Description: "Groceries",
		Amount:      core.Money{Cents: 4250},
		Category:    core.CategoryExpense,
		OccurredOn:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func newTestService(t *testing.T) (*EntryService, *memory.Store, *fakePublisher, *stream.Hub) {
	t.Helper()
	s := memory.New()
	hub := stream.NewHub(s, testLogger())
	t.Cleanup(hub.Close)
	pub := &fakePublisher{}
	snapshots := cache.NewLRU[core.Snapshot](16, time.Minute)
	return NewEntryService(s, hub, pub, snapshots), s, pub, hub
}

func TestCreateAssignsDisplayDateAndPublishes(t *testing.T) {
	svc, _, pub, _ := newTestService(t)

	created, err := svc.Create(context.Background(), validEntry("anna@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Error("expected an assigned id")
	}
	if created.DisplayDate != "10/03/2026" {
		t.Errorf("expected display date derived from the entry date, got %q", created.DisplayDate)
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Kind != amqp.EventEntryCreated || ev.EntryID != created.ID || ev.OwnerEmail != "anna@example.com" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestCreateInvalidEntryPublishesNothing(t *testing.T) {
	svc, _, pub, _ := newTestService(t)

	bad := validEntry("anna@example.com")
	bad.Amount = core.Money{Cents: 0}

	if _, err := svc.Create(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no events for a rejected create, got %d", len(pub.events))
	}
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	s := memory.New()
	svc := NewEntryService(s, nil, &fakePublisher{err: errors.New("broker down")}, nil)

	created, err := svc.Create(context.Background(), validEntry("anna@example.com"))
	if err != nil {
		t.Fatalf("create should survive a broker outage: %v", err)
	}
	if _, err := s.Get(context.Background(), created.ID); err != nil {
		t.Errorf("entry should be persisted despite the failed publish: %v", err)
	}
}

func TestGetForeignEntryIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), validEntry("anna@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(context.Background(), "other@example.com", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another owner's entry, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "anna@example.com", created.ID); err != nil {
		t.Errorf("owner should read their own entry: %v", err)
	}
}

func TestUpdateRewritesFieldsAndPublishes(t *testing.T) {
	svc, _, pub, _ := newTestService(t)

	created, err := svc.Create(context.Background(), validEntry("anna@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), "anna@example.com", created.ID, core.EntryUpdate{
		Description: "Groceries and supplies",
		Amount:      core.Money{Cents: 5000},
		Category:    core.CategoryExpense,
		OccurredOn:  time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount.Cents != 5000 || updated.DisplayDate != "11/03/2026" {
		t.Errorf("unexpected updated entry: %+v", updated)
	}
	if updated.OwnerEmail != created.OwnerEmail || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("owner and creation time must survive an update")
	}

	last := pub.events[len(pub.events)-1]
	if last.Kind != amqp.EventEntryUpdated {
		t.Errorf("expected an update event, got %q", last.Kind)
	}
}

func TestUpdateForeignEntryIsNotFound(t *testing.T) {
	svc, _, pub, _ := newTestService(t)

	created, err := svc.Create(context.Background(), validEntry("anna@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	published := len(pub.events)

	_, err = svc.Update(context.Background(), "other@example.com", created.ID, core.EntryUpdate{
		Description: "hijack",
		Amount:      core.Money{Cents: 1},
		Category:    core.CategoryExpense,
		OccurredOn:  time.Now(),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.events) != published {
		t.Error("rejected update must not publish an event")
	}
}

func TestDeleteRemovesEntryAndPublishes(t *testing.T) {
	svc, s, pub, _ := newTestService(t)

	created, err := svc.Create(context.Background(), validEntry("anna@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), "anna@example.com", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(context.Background(), created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected the entry to be gone, got %v", err)
	}

	last := pub.events[len(pub.events)-1]
	if last.Kind != amqp.EventEntryDeleted || last.EntryID != created.ID {
		t.Errorf("unexpected delete event: %+v", last)
	}

	if err := svc.Delete(context.Background(), "anna@example.com", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestSnapshotCachedUntilMutation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	owner := "anna@example.com"

	if _, err := svc.Create(ctx, validEntry(owner)); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.Snapshot(ctx, owner)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(first.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(first.Entries))
	}

	income := validEntry(owner)
	income.Description = "Salary"
	income.Category = core.CategoryIncome
	income.Amount = core.Money{Cents: 100000}
	if _, err := svc.Create(ctx, income); err != nil {
		t.Fatalf("create income: %v", err)
	}

	second, err := svc.Snapshot(ctx, owner)
	if err != nil {
		t.Fatalf("snapshot after mutation: %v", err)
	}
	if len(second.Entries) != 2 {
		t.Fatalf("expected the cache to be invalidated by the mutation, got %d entries", len(second.Entries))
	}
	if second.Summary.Balance.Cents != 100000-4250 {
		t.Errorf("unexpected balance: %d", second.Summary.Balance.Cents)
	}
}

func TestMutationNotifiesSubscribers(t *testing.T) {
	svc, _, _, hub := newTestService(t)
	ctx := context.Background()

	ch, cancel := hub.Subscribe(ctx, "anna@example.com")
	defer cancel()
	<-ch // initial snapshot

	if _, err := svc.Create(ctx, validEntry("anna@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case u := <-ch:
		if u.Err != nil {
			t.Fatalf("unexpected error update: %v", u.Err)
		}
		if len(u.Snapshot.Entries) != 1 {
			t.Errorf("expected the pushed snapshot to contain the new entry, got %d", len(u.Snapshot.Entries))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot pushed after the mutation")
	}
}

func TestSummaryMatchesSnapshot(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	owner := "anna@example.com"

	sum, err := svc.Summary(ctx, owner)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalIncome.Cents != 0 || sum.TotalExpense.Cents != 0 || sum.Balance.Cents != 0 {
		t.Errorf("expected all-zero summary with no entries, got %+v", sum)
	}
}
