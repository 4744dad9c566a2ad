package core

// PreviewSize is how many entries the preview variant of a snapshot keeps.
const PreviewSize = 3

// Summary holds the three derived figures for a filtered entry set.
// Balance is always TotalIncome - TotalExpense, exact in cents.
type Summary struct {
	TotalIncome  Money `json:"totalIncome"`
	TotalExpense Money `json:"totalExpense"`
	Balance      Money `json:"balance"`
}

// Snapshot is one full owner-scoped result set as pushed to subscribers:
// every entry in descending creation order, the bounded preview, and the
// derived totals. Each push replaces the previous snapshot wholesale.
type Snapshot struct {
	Entries []Entry `json:"entries"`
	Recent  []Entry `json:"recent"`
	Summary Summary `json:"summary"`
}

// FilterByOwner keeps the entries whose owner matches. Order is preserved.
// Filtering an already-filtered set by the same owner is a no-op.
func FilterByOwner(entries []Entry, owner string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.OwnerEmail == owner {
			out = append(out, e)
		}
	}
	return out
}

// Summarize recomputes the totals from scratch over the given set. An empty
// set yields all zeros. Entries with a non-positive amount contribute zero
// rather than failing; an unknown category contributes to neither total.
func Summarize(entries []Entry) Summary {
	var income, expense int64
	for _, e := range entries {
		cents := e.Amount.Cents
		if cents < 0 {
			cents = 0
		}
		switch e.Category {
		case CategoryIncome:
			income += cents
		case CategoryExpense:
			expense += cents
		}
	}
	return Summary{
		TotalIncome:  Money{Cents: income},
		TotalExpense: Money{Cents: expense},
		Balance:      Money{Cents: income - expense},
	}
}

// BuildSnapshot derives a snapshot from an owner-scoped entry list already
// ordered by descending creation time.
func BuildSnapshot(entries []Entry) Snapshot {
	if entries == nil {
		entries = []Entry{}
	}
	recent := entries
	if len(recent) > PreviewSize {
		recent = recent[:PreviewSize]
	}
	return Snapshot{
		Entries: entries,
		Recent:  recent,
		Summary: Summarize(entries),
	}
}

// Empty reports whether the snapshot holds no entries. Clients render this as
// a distinct "no transactions" state rather than a zero-valued card.
func (s Snapshot) Empty() bool {
	return len(s.Entries) == 0
}
