package storage

import (
	"context"
	"testing"
	"time"

	"mealvision-server/internal/domain/auth"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewUserRepository(db)
	ctx := context.Background()

	account := &auth.Account{
		Username:     "alice",
		PasswordHash: "hash",
		Salt:         "salt",
		Nickname:     "Alice",
		CreatedAt:    time.Now(),
	}
	if err := repo.Create(ctx, account); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if account.ID == 0 {
		t.Fatal("Create must backfill the account ID")
	}

	byName, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if byName == nil || byName.ID != account.ID || byName.Salt != "salt" {
		t.Errorf("unexpected account %+v", byName)
	}

	byID, err := repo.FindByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID == nil || byID.Username != "alice" {
		t.Errorf("unexpected account %+v", byID)
	}

	if missing, _ := repo.FindByUsername(ctx, "bob"); missing != nil {
		t.Error("unknown username must resolve to nil")
	}
}

func TestUserRepository_UniqueUsername(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	repo := NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &auth.Account{Username: "alice", PasswordHash: "h", Salt: "s"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, &auth.Account{Username: "alice", PasswordHash: "h2", Salt: "s2"}); err == nil {
		t.Fatal("duplicate username must fail")
	}
}
