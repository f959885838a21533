package seed_test

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ivankudzin/heartsync/internal/repo/sqlite"
	"github.com/ivankudzin/heartsync/internal/repo/sqlite/sqlitetest"
	"github.com/ivankudzin/heartsync/internal/seed"
)

func TestRunCreatesDemoAccountsOnce(t *testing.T) {
	db := sqlitetest.New(t)
	users := sqlite.NewUserRepo(db)
	ctx := context.Background()

	res, err := seed.Run(ctx, users, seed.DefaultAccounts(), seed.DefaultPassword, bcrypt.MinCost, nil)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if res.Created != 5 || res.Skipped != 0 {
		t.Fatalf("unexpected first run result: %+v", res)
	}

	res, err = seed.Run(ctx, users, seed.DefaultAccounts(), seed.DefaultPassword, bcrypt.MinCost, nil)
	if err != nil {
		t.Fatalf("seed again: %v", err)
	}
	if res.Created != 0 || res.Skipped != 5 {
		t.Fatalf("unexpected second run result: %+v", res)
	}

	alice, err := users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("load alice: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(alice.PasswordHash), []byte(seed.DefaultPassword)); err != nil {
		t.Fatalf("seeded password does not verify: %v", err)
	}

	profile, err := sqlite.NewProfileRepo(db).GetByUserID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("load alice profile: %v", err)
	}
	if profile.DisplayName != "Alice" || profile.Age != 24 || len(profile.Interests) != 2 || profile.ImageRef == nil {
		t.Fatalf("unexpected seeded profile: %+v", profile)
	}
}
