// Command tracker-seed fills the store with fake accounts and entries for
// local development and demos.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"tracker/internal/config"
	"tracker/internal/core"
	applog "tracker/internal/log"
	"tracker/internal/storage"
	"tracker/internal/store"
)

func main() {
	_ = godotenv.Load()

	users := flag.Int("users", 3, "number of accounts to create")
	entries := flag.Int("entries", 25, "entries per account")
	password := flag.String("password", "password123", "password for every seeded account")
	flag.Parse()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cfg.BcryptCost)
	if err != nil {
		logger.Error("Password hash failed", applog.FieldError, err)
		os.Exit(1)
	}

	for i := 0; i < *users; i++ {
		email := strings.ToLower(faker.Email())
		err := repo.CreateUser(ctx, store.User{
			Email:        email,
			DisplayName:  faker.Name(),
			PasswordHash: string(hash),
		})
		if err != nil {
			logger.Warn("Skipping user", applog.FieldError, err, applog.FieldOwner, email)
			continue
		}

		for j := 0; j < *entries; j++ {
			if _, err := repo.Create(ctx, randomEntry(email)); err != nil {
				logger.Warn("Skipping entry", applog.FieldError, err, applog.FieldOwner, email)
			}
		}
		logger.Info("Seeded account", applog.FieldOwner, email, "entries", *entries, "password", *password)
	}

	logger.Info("Seeding done", "users", *users)
}

func randomEntry(owner string) core.Entry {
	desc := faker.Sentence()
	if len(desc) > 200 {
		desc = desc[:200]
	}

	category := core.CategoryExpense
	cents := int64(rand.Intn(20000) + 100)
	if rand.Intn(5) == 0 {
		category = core.CategoryIncome
		cents = int64(rand.Intn(300000) + 50000)
	}

	occurred := time.Now().UTC().AddDate(0, 0, -rand.Intn(90)).Truncate(24 * time.Hour)

	return core.Entry{
		OwnerEmail:  owner,
		Description: strings.TrimSpace(desc),
		Amount:      core.Money{Cents: cents},
		Category:    category,
		OccurredOn:  occurred,
		DisplayDate: core.FormatDisplayDate(occurred),
	}
}
