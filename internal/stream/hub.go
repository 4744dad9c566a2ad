// Package stream implements the live aggregation feed: long-lived per-owner
// subscriptions that receive a full replacement snapshot on every change.
package stream

import (
	"context"
	"sync"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"
)

// Update is one push to a subscriber: a whole snapshot, or an explicit error
// state when the backing store could not be read. An error is distinct from
// an empty result on purpose.
type Update struct {
	Snapshot core.Snapshot
	Err      error
}

// Hub fans snapshots out to subscribers. Every subscriber owns its own
// subscription; none are shared or coalesced. Slow subscribers always see
// the latest snapshot: an undelivered push is replaced, never queued.
type Hub struct {
	entries store.EntryStore
	logger  *log.Logger

	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	owner string
	ch    chan Update
}

func NewHub(entries store.EntryStore, logger *log.Logger) *Hub {
	return &Hub{
		entries: entries,
		logger:  logger.WithComponent(log.ComponentStream),
		subs:    make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe opens a subscription scoped to one owner. The current snapshot
// is delivered immediately, then a replacement on every change. The returned
// cancel must be called when the view unmounts; it releases the subscription
// and closes the channel.
func (h *Hub) Subscribe(ctx context.Context, owner string) (<-chan Update, func()) {
	sub := &subscriber{owner: owner, ch: make(chan Update, 1)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		ch := make(chan Update)
		close(ch)
		return ch, func() {}
	}
	if h.subs[owner] == nil {
		h.subs[owner] = make(map[*subscriber]struct{})
	}
	h.subs[owner][sub] = struct{}{}
	// The initial snapshot is read while the lock is held so a concurrent
	// Notify cannot slip a push in between the read and the registration,
	// which would leave the first delivery stale until the next change.
	sub.push(h.snapshot(ctx, owner))
	h.mu.Unlock()

	h.logger.DebugContext(ctx, "Subscription opened", log.FieldOwner, owner)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.closed {
				return
			}
			if set, ok := h.subs[owner]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, owner)
				}
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Notify recomputes the owner's snapshot from the store and pushes it to
// every subscriber of that owner. Recomputation is unconditional and total;
// there is no incremental diffing.
func (h *Hub) Notify(ctx context.Context, owner string) {
	h.mu.Lock()
	n := len(h.subs[owner])
	h.mu.Unlock()
	if n == 0 {
		return
	}

	update := h.snapshot(ctx, owner)

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[owner] {
		sub.push(update)
	}

	if update.Err != nil {
		h.logger.ErrorContext(ctx, "Snapshot recompute failed",
			log.FieldOwner, owner,
			log.FieldError, update.Err)
	} else {
		h.logger.DebugContext(ctx, "Snapshot pushed",
			log.FieldOwner, owner,
			"subscribers", n,
			"entries", len(update.Snapshot.Entries))
	}
}

// SubscriberCount reports how many subscriptions an owner currently holds.
func (h *Hub) SubscriberCount(owner string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[owner])
}

// Close tears down every subscription. Further Subscribe calls return a
// closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for owner, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(h.subs, owner)
	}
}

func (h *Hub) snapshot(ctx context.Context, owner string) Update {
	entries, err := h.entries.ListByOwner(ctx, owner)
	if err != nil {
		return Update{Err: err}
	}
	return Update{Snapshot: core.BuildSnapshot(entries)}
}

// push delivers latest-wins: if the previous update was not consumed yet it
// is dropped in favor of the new one. Called with the hub lock held.
func (s *subscriber) push(u Update) {
	for {
		select {
		case s.ch <- u:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
