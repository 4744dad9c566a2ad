package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tracker/internal/core"
	"tracker/internal/store"
)

// timeLayout is how timestamps are stored in SQLite text columns. The
// fractional seconds are fixed-width so lexicographic ORDER BY on the text
// column matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dayLayout is how calendar dates (occurred_on, summary day) are stored.
const dayLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create implements store.EntryStore. The id and creation timestamp are
// assigned here, server-side.
func (r *SQLiteRepository) Create(ctx context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (id, owner_email, description, amount_cents, category, occurred_on, display_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerEmail, e.Description, e.Amount.Cents, string(e.Category),
		e.OccurredOn.Format(dayLayout), e.DisplayDate, e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", e.ID,
		"owner", e.OwnerEmail,
		"category", string(e.Category),
		"amount_cents", e.Amount.Cents)

	return e.ID, nil
}

// Get implements store.EntryStore.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_email, description, amount_cents, category, occurred_on, display_date, created_at
		FROM entries WHERE id = ?`, id)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entry{}, store.ErrNotFound
		}
		return core.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

// Update implements store.EntryStore. Only the editable fields are written;
// owner_email and created_at are deliberately absent from the statement.
func (r *SQLiteRepository) Update(ctx context.Context, id string, u core.EntryUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE entries
		SET description = ?, amount_cents = ?, category = ?, occurred_on = ?, display_date = ?
		WHERE id = ?`,
		u.Description, u.Amount.Cents, string(u.Category),
		u.OccurredOn.Format(dayLayout), u.DisplayDate, id,
	)
	if err != nil {
		return fmt.Errorf("update entry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete implements store.EntryStore.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry %s: rows affected: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	slog.InfoContext(ctx, "Entry deleted from SQLite", "id", id)
	return nil
}

// ListByOwner implements store.EntryStore. The owner predicate is part of the
// query so foreign entries never leave the database.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_email, description, amount_cents, category, occurred_on, display_date, created_at
		FROM entries WHERE owner_email = ?
		ORDER BY created_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", owner, err)
	}
	defer rows.Close()

	entries := make([]core.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) Owners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT owner_email FROM entries ORDER BY owner_email`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	owners := make([]string, 0)
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return owners, nil
}

// CreateUser implements store.UserStore.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u store.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, u.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check user %s: %w", u.Email, err)
	}
	if exists > 0 {
		return store.ErrEmailTaken
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (email, display_name, photo_url, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.DisplayName, u.PhotoURL, u.PasswordHash, u.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.Email, err)
	}

	slog.InfoContext(ctx, "User registered", "email", u.Email)
	return nil
}

// GetUserByEmail implements store.UserStore.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	var (
		u         store.User
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT email, display_name, photo_url, password_hash, created_at
		FROM users WHERE email = ?`, email).
		Scan(&u.Email, &u.DisplayName, &u.PhotoURL, &u.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.User{}, store.ErrUserNotFound
		}
		return store.User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return u, nil
}

// UpsertDailySummary implements store.SummaryStore.
func (r *SQLiteRepository) UpsertDailySummary(ctx context.Context, s store.DailySummary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_summaries (owner_email, day, total_income_cents, total_expense_cents, balance_cents, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_email, day) DO UPDATE SET
			total_income_cents = excluded.total_income_cents,
			total_expense_cents = excluded.total_expense_cents,
			balance_cents = excluded.balance_cents,
			updated_at = excluded.updated_at`,
		s.OwnerEmail, s.Day.Format(dayLayout),
		s.TotalIncome.Cents, s.TotalExpense.Cents, s.Balance.Cents,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert daily summary %s/%s: %w", s.OwnerEmail, s.Day.Format(dayLayout), err)
	}
	return nil
}

// ListDailySummaries implements store.SummaryStore, newest day first.
func (r *SQLiteRepository) ListDailySummaries(ctx context.Context, owner string) ([]store.DailySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT owner_email, day, total_income_cents, total_expense_cents, balance_cents, updated_at
		FROM daily_summaries WHERE owner_email = ?
		ORDER BY day DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list daily summaries for %s: %w", owner, err)
	}
	defer rows.Close()

	out := make([]store.DailySummary, 0)
	for rows.Next() {
		var (
			s              store.DailySummary
			day, updatedAt string
		)
		if err := rows.Scan(&s.OwnerEmail, &day, &s.TotalIncome.Cents, &s.TotalExpense.Cents, &s.Balance.Cents, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		s.Day, _ = time.Parse(dayLayout, day)
		s.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily summaries: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var (
		e                     core.Entry
		category              string
		occurredOn, createdAt string
	)
	if err := row.Scan(&e.ID, &e.OwnerEmail, &e.Description, &e.Amount.Cents,
		&category, &occurredOn, &e.DisplayDate, &createdAt); err != nil {
		return core.Entry{}, err
	}
	e.Category = core.Category(category)
	e.OccurredOn, _ = time.Parse(dayLayout, occurredOn)
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return e, nil
}

// Compile-time checks: the SQLite repository implements every port.
var (
	_ store.EntryStore   = (*SQLiteRepository)(nil)
	_ store.UserStore    = (*SQLiteRepository)(nil)
	_ store.SummaryStore = (*SQLiteRepository)(nil)
)
