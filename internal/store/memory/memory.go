// Package memory is the in-process implementation of the store ports, used
// by tests and the "memory" data backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracker/internal/core"
	"tracker/internal/store"
)

type Store struct {
	mu        sync.Mutex
	entries   map[string]core.Entry
	users     map[string]store.User
	summaries map[string]store.DailySummary

	// monotonic tiebreaker so entries created in the same nanosecond keep a
	// stable newest-first order
	seq   int64
	order map[string]int64
}

func New() *Store {
	return &Store{
		entries:   make(map[string]core.Entry),
		users:     make(map[string]store.User),
		summaries: make(map[string]store.DailySummary),
		order:     make(map[string]int64),
	}
}

func (s *Store) Create(_ context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.seq++
	s.order[e.ID] = s.seq
	s.entries[e.ID] = e
	return e.ID, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return core.Entry{}, store.ErrNotFound
	}
	return e, nil
}

func (s *Store) Update(_ context.Context, id string, u core.EntryUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Description = u.Description
	e.Amount = u.Amount
	e.Category = u.Category
	e.OccurredOn = u.OccurredOn
	e.DisplayDate = u.DisplayDate
	s.entries[id] = e
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.entries, id)
	delete(s.order, id)
	return nil
}

func (s *Store) ListByOwner(_ context.Context, owner string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Entry, 0)
	for _, e := range s.entries {
		if e.OwnerEmail == owner {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.order[out[i].ID] > s.order[out[j].ID]
	})
	return out, nil
}

func (s *Store) Owners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range s.entries {
		if _, ok := seen[e.OwnerEmail]; ok {
			continue
		}
		seen[e.OwnerEmail] = struct{}{}
		out = append(out, e.OwnerEmail)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Email]; ok {
		return store.ErrEmailTaken
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.Email] = u
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return store.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) UpsertDailySummary(_ context.Context, ds store.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds.UpdatedAt = time.Now().UTC()
	s.summaries[ds.OwnerEmail+"|"+ds.Day.Format("2006-01-02")] = ds
	return nil
}

func (s *Store) ListDailySummaries(_ context.Context, owner string) ([]store.DailySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]store.DailySummary, 0)
	for _, ds := range s.summaries {
		if ds.OwnerEmail == owner {
			out = append(out, ds)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.After(out[j].Day) })
	return out, nil
}

// Compile-time checks: the memory store implements every port.
var (
	_ store.EntryStore   = (*Store)(nil)
	_ store.UserStore    = (*Store)(nil)
	_ store.SummaryStore = (*Store)(nil)
)
