package auth

import (
	"context"
	"testing"
	"time"
)

func TestActivityLogRecordAndSummarize(t *testing.T) {
	store := newMockActivityStore()
	log := NewActivityLog(store)
	ctx := context.Background()

	if err := log.RecordSuccess(ctx, "acct-1", "1.2.3.4", "ua"); err != nil {
		t.Fatal(err)
	}
	if err := log.RecordFailure(ctx, "acct-1", "1.2.3.4", "ua"); err != nil {
		t.Fatal(err)
	}

	summary, err := log.Summarize(ctx, "acct-1", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Successes != 1 || summary.Failures != 1 {
		t.Errorf("summary = %+v, want 1 success and 1 failure", summary)
	}
}

func TestActivityLogNeverLoggedIn(t *testing.T) {
	store := newMockActivityStore()
	log := NewActivityLog(store)
	ctx := context.Background()

	if err := log.RecordSuccess(ctx, "acct-1", "1.2.3.4", "ua"); err != nil {
		t.Fatal(err)
	}

	never, err := log.NeverLoggedIn(ctx, []string{"acct-1", "acct-2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(never) != 1 || never[0] != "acct-2" {
		t.Errorf("NeverLoggedIn = %v, want [acct-2]", never)
	}
}

func TestActivityLogCleanup(t *testing.T) {
	store := newMockActivityStore()
	store.entries = append(store.entries, Activity{
		AccountID: "acct-1",
		EventType: EventLoginSuccess,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	})
	log := NewActivityLog(store)

	removed, err := log.Cleanup(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}
