// Package worker maintains the daily reporting table from entry change
// events, with a periodic reconcile pass as a backup for lost messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/store"
)

// EventConsumer delivers entry change events. *amqp.Client satisfies it.
type EventConsumer interface {
	ConsumeEntryEvents(ctx context.Context, handler func(*amqp.EntryEvent) error) error
}

// SummaryWorker recomputes per-day totals for an owner whenever one of
// their entries changes. Recomputation is total per owner, never
// incremental, so a reprocessed or out-of-order event converges to the
// same rows.
type SummaryWorker struct {
	entries   store.EntryStore
	summaries store.SummaryStore
	consumer  EventConsumer

	reconcileInterval time.Duration
}

func NewSummaryWorker(entries store.EntryStore, summaries store.SummaryStore, consumer EventConsumer, reconcileInterval time.Duration) *SummaryWorker {
	return &SummaryWorker{
		entries:           entries,
		summaries:         summaries,
		consumer:          consumer,
		reconcileInterval: reconcileInterval,
	}
}

// Run consumes events and reconciles on a timer until the context ends.
func (w *SummaryWorker) Run(ctx context.Context) error {
	// Catch up on anything that changed while the worker was down.
	if err := w.ReconcileAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup reconcile failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if w.consumer != nil {
		g.Go(func() error {
			return w.consumer.ConsumeEntryEvents(ctx, func(ev *amqp.EntryEvent) error {
				return w.HandleEntryEvent(ctx, ev)
			})
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.reconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ReconcileAll(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic reconcile failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleEntryEvent processes one entry change event. Errors propagate so
// the consumer can nack and redeliver.
func (w *SummaryWorker) HandleEntryEvent(ctx context.Context, ev *amqp.EntryEvent) error {
	slog.InfoContext(ctx, "Processing entry event",
		"kind", ev.Kind,
		"entry_id", ev.EntryID,
		"owner", ev.OwnerEmail)

	if ev.OwnerEmail == "" {
		slog.WarnContext(ctx, "Entry event without owner, skipping", "entry_id", ev.EntryID)
		return nil
	}
	return w.RecomputeOwner(ctx, ev.OwnerEmail)
}

// RecomputeOwner rebuilds every daily row for one owner from their entries.
// Days whose entries all disappeared are zeroed rather than left stale.
func (w *SummaryWorker) RecomputeOwner(ctx context.Context, owner string) error {
	entries, err := w.entries.ListByOwner(ctx, owner)
	if err != nil {
		return fmt.Errorf("list entries for %s: %w", owner, err)
	}

	days := make(map[time.Time]*store.DailySummary)
	for _, e := range entries {
		day := e.OccurredOn.UTC().Truncate(24 * time.Hour)
		ds, ok := days[day]
		if !ok {
			ds = &store.DailySummary{OwnerEmail: owner, Day: day}
			days[day] = ds
		}
		switch e.Category {
		case core.CategoryIncome:
			ds.TotalIncome.Cents += e.Amount.Cents
		case core.CategoryExpense:
			ds.TotalExpense.Cents += e.Amount.Cents
		}
	}

	existing, err := w.summaries.ListDailySummaries(ctx, owner)
	if err != nil {
		return fmt.Errorf("list daily summaries for %s: %w", owner, err)
	}
	for _, old := range existing {
		day := old.Day.UTC().Truncate(24 * time.Hour)
		if _, ok := days[day]; !ok {
			days[day] = &store.DailySummary{OwnerEmail: owner, Day: day}
		}
	}

	for _, ds := range days {
		ds.Balance.Cents = ds.TotalIncome.Cents - ds.TotalExpense.Cents
		if err := w.summaries.UpsertDailySummary(ctx, *ds); err != nil {
			return fmt.Errorf("upsert daily summary %s/%s: %w", owner, ds.Day.Format("2006-01-02"), err)
		}
	}

	slog.DebugContext(ctx, "Owner summaries recomputed", "owner", owner, "days", len(days))
	return nil
}

// ReconcileAll recomputes every owner. This is the safety net for lost or
// unpublished events.
func (w *SummaryWorker) ReconcileAll(ctx context.Context) error {
	owners, err := w.entries.Owners(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}

	var failures int
	for _, owner := range owners {
		if err := w.RecomputeOwner(ctx, owner); err != nil {
			slog.ErrorContext(ctx, "Owner reconcile failed", "owner", owner, "error", err)
			failures++
		}
	}

	slog.InfoContext(ctx, "Reconcile completed", "owners", len(owners), "failures", failures)
	if failures > 0 {
		return fmt.Errorf("reconcile: %d of %d owners failed", failures, len(owners))
	}
	return nil
}
