package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

func TestSQLAuthStoreCreateAndGet(t *testing.T) {
	store := NewAuthStore(openTestStore(t))
	ctx := context.Background()

	acct := &auth.Account{ID: "acct-1", Username: "alice", PasswordHash: "hash", Permissions: map[string][]string{"col1": {"read"}}}
	if err := store.CreateAccount(ctx, acct); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	got, err := store.GetAccountByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAccountByUsername: %v", err)
	}
	if got.ID != "acct-1" || got.PasswordHash != "hash" {
		t.Errorf("got %+v", got)
	}
	if len(got.Permissions["col1"]) != 1 || got.Permissions["col1"][0] != "read" {
		t.Errorf("permissions not round-tripped: %+v", got.Permissions)
	}
}

func TestSQLAuthStoreDuplicateUsername(t *testing.T) {
	store := NewAuthStore(openTestStore(t))
	ctx := context.Background()

	if err := store.CreateAccount(ctx, &auth.Account{ID: "acct-1", Username: "alice"}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	err := store.CreateAccount(ctx, &auth.Account{ID: "acct-2", Username: "alice"})
	if !errors.Is(err, auth.ErrUsernameTaken) {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestSQLAuthStoreGetAccountNotFound(t *testing.T) {
	store := NewAuthStore(openTestStore(t))
	_, err := store.GetAccount(context.Background(), "missing")
	if !errors.Is(err, auth.ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestSQLAuthStoreUpdateAccount(t *testing.T) {
	store := NewAuthStore(openTestStore(t))
	ctx := context.Background()

	acct := &auth.Account{ID: "acct-1", Username: "alice"}
	if err := store.CreateAccount(ctx, acct); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	acct.IsAdmin = true
	if err := store.UpdateAccount(ctx, acct); err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}

	got, err := store.GetAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !got.IsAdmin {
		t.Error("expected IsAdmin=true after update")
	}
}
