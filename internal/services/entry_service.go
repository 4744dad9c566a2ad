// Package services orchestrates entry operations across the store, the
// subscription hub, the snapshot cache and AMQP.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"tracker/internal/amqp"
	"tracker/internal/cache"
	"tracker/internal/core"
	"tracker/internal/store"
	"tracker/internal/stream"
)

// EventPublisher emits entry change events for downstream consumers.
// *amqp.Client satisfies it.
type EventPublisher interface {
	PublishEntryEvent(ctx context.Context, event *amqp.EntryEvent) error
}

// EntryService is the write path for entries. Mutations go to the store
// first; cache invalidation, subscriber pushes and event publishing follow.
// A failed publish never fails the request, the entry is already persisted.
type EntryService struct {
	entries   store.EntryStore
	hub       *stream.Hub
	publisher EventPublisher
	snapshots *cache.LRU[core.Snapshot]
}

func NewEntryService(entries store.EntryStore, hub *stream.Hub, publisher EventPublisher, snapshots *cache.LRU[core.Snapshot]) *EntryService {
	return &EntryService{
		entries:   entries,
		hub:       hub,
		publisher: publisher,
		snapshots: snapshots,
	}
}

// Create persists a new entry for the owner and returns it as stored.
func (s *EntryService) Create(ctx context.Context, e core.Entry) (core.Entry, error) {
	if e.DisplayDate == "" && !e.OccurredOn.IsZero() {
		e.DisplayDate = core.FormatDisplayDate(e.OccurredOn)
	}

	id, err := s.entries.Create(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	created, err := s.entries.Get(ctx, id)
	if err != nil {
		return core.Entry{}, fmt.Errorf("read back entry %s: %w", id, err)
	}

	s.afterMutation(ctx, amqp.EventEntryCreated, created)
	return created, nil
}

// Get returns one of the owner's entries. Entries belonging to anyone else
// are reported as not found, never as forbidden.
func (s *EntryService) Get(ctx context.Context, owner, id string) (core.Entry, error) {
	e, err := s.entries.Get(ctx, id)
	if err != nil {
		return core.Entry{}, err
	}
	if e.OwnerEmail != owner {
		return core.Entry{}, store.ErrNotFound
	}
	return e, nil
}

// Update rewrites the editable fields of one of the owner's entries.
func (s *EntryService) Update(ctx context.Context, owner, id string, u core.EntryUpdate) (core.Entry, error) {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return core.Entry{}, err
	}

	if u.DisplayDate == "" && !u.OccurredOn.IsZero() {
		u.DisplayDate = core.FormatDisplayDate(u.OccurredOn)
	}

	if err := s.entries.Update(ctx, id, u); err != nil {
		return core.Entry{}, fmt.Errorf("update entry %s: %w", id, err)
	}

	updated, err := s.entries.Get(ctx, id)
	if err != nil {
		return core.Entry{}, fmt.Errorf("read back entry %s: %w", id, err)
	}

	s.afterMutation(ctx, amqp.EventEntryUpdated, updated)
	return updated, nil
}

// Delete removes one of the owner's entries permanently. There is no undo.
func (s *EntryService) Delete(ctx context.Context, owner, id string) error {
	e, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.entries.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}

	s.afterMutation(ctx, amqp.EventEntryDeleted, e)
	return nil
}

// List returns the owner's entries, newest first.
func (s *EntryService) List(ctx context.Context, owner string) ([]core.Entry, error) {
	return s.entries.ListByOwner(ctx, owner)
}

// Snapshot returns the owner's full aggregation view, served from the cache
// when a fresh copy exists.
func (s *EntryService) Snapshot(ctx context.Context, owner string) (core.Snapshot, error) {
	if s.snapshots != nil {
		if snap, ok := s.snapshots.Get(owner); ok {
			return snap, nil
		}
	}

	entries, err := s.entries.ListByOwner(ctx, owner)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("list entries for %s: %w", owner, err)
	}

	snap := core.BuildSnapshot(entries)
	if s.snapshots != nil {
		s.snapshots.Set(owner, snap)
	}
	return snap, nil
}

// Summary returns just the running totals of the owner's snapshot.
func (s *EntryService) Summary(ctx context.Context, owner string) (core.Summary, error) {
	snap, err := s.Snapshot(ctx, owner)
	if err != nil {
		return core.Summary{}, err
	}
	return snap.Summary, nil
}

func (s *EntryService) afterMutation(ctx context.Context, kind string, e core.Entry) {
	if s.snapshots != nil {
		s.snapshots.Invalidate(e.OwnerEmail)
	}

	if s.hub != nil {
		s.hub.Notify(ctx, e.OwnerEmail)
	}

	if err := s.publishEvent(ctx, kind, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry event",
			"kind", kind, "entry_id", e.ID, "error", err)
		// Don't fail the request, the store write already succeeded
	}
}

func (s *EntryService) publishEvent(ctx context.Context, kind string, e core.Entry) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping entry event", "kind", kind)
		return nil
	}

	return s.publisher.PublishEntryEvent(ctx, amqp.NewEntryEvent(kind, e.ID, e.OwnerEmail, e.OccurredOn))
}
