package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

func TestSQLActivityStoreRecordAndList(t *testing.T) {
	store := NewActivityStore(openTestStore(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.RecordActivity(ctx, auth.Activity{AccountID: "acct-1", EventType: auth.EventLoginSuccess, CreatedAt: now}); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if err := store.RecordActivity(ctx, auth.Activity{AccountID: "acct-1", EventType: auth.EventLoginFailed, CreatedAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	entries, err := store.ListActivity(ctx, "acct-1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
}

func TestSQLActivityStoreLastActivity(t *testing.T) {
	store := NewActivityStore(openTestStore(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.RecordActivity(ctx, auth.Activity{AccountID: "acct-1", CreatedAt: now}); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if err := store.RecordActivity(ctx, auth.Activity{AccountID: "acct-1", CreatedAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	last, err := store.LastActivity(ctx, "acct-1")
	if err != nil {
		t.Fatalf("LastActivity: %v", err)
	}
	if last == nil || !last.CreatedAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("LastActivity = %+v, want later entry", last)
	}
}

func TestSQLActivityStoreDeleteActivityBefore(t *testing.T) {
	store := NewActivityStore(openTestStore(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.RecordActivity(ctx, auth.Activity{AccountID: "acct-1", CreatedAt: now.Add(-48 * time.Hour)}); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if err := store.RecordActivity(ctx, auth.Activity{AccountID: "acct-1", CreatedAt: now}); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	removed, err := store.DeleteActivityBefore(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteActivityBefore: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}
