package auth

import (
	"context"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
)

// ActivityLog records and queries account authentication activity
// (spec.md §4.7). For failed attempts against unknown usernames, nothing is
// logged — there is no account id to attach the entry to.
type ActivityLog struct {
	store ActivityStore
}

// NewActivityLog wraps an ActivityStore.
func NewActivityLog(store ActivityStore) *ActivityLog {
	return &ActivityLog{store: store}
}

// RecordSuccess logs a successful authentication.
func (l *ActivityLog) RecordSuccess(ctx context.Context, accountID, ip, userAgent string) error {
	return l.store.RecordActivity(ctx, Activity{
		AccountID: accountID,
		EventType: EventLoginSuccess,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	})
}

// RecordFailure logs a failed authentication against a known account. Per
// spec.md §4.7, failures against unknown usernames are never logged; callers
// must only invoke this once the username has resolved to an account id.
func (l *ActivityLog) RecordFailure(ctx context.Context, accountID, ip, userAgent string) error {
	return l.store.RecordActivity(ctx, Activity{
		AccountID: accountID,
		EventType: EventLoginFailed,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	})
}

// UsageSummary counts login successes and failures for accountID since the
// given time.
type UsageSummary struct {
	AccountID    string
	Successes    int
	Failures     int
	LastActivity time.Time
	HasActivity  bool
}

// Summarize computes a UsageSummary for accountID over activity since.
func (l *ActivityLog) Summarize(ctx context.Context, accountID string, since time.Time) (UsageSummary, error) {
	entries, err := l.store.ListActivity(ctx, accountID, since)
	if err != nil {
		return UsageSummary{}, apperr.Wrap(apperr.Internal, "list activity", err)
	}
	summary := UsageSummary{AccountID: accountID}
	for _, e := range entries {
		switch e.EventType {
		case EventLoginSuccess:
			summary.Successes++
		case EventLoginFailed:
			summary.Failures++
		}
		if !summary.HasActivity || e.CreatedAt.After(summary.LastActivity) {
			summary.LastActivity = e.CreatedAt
			summary.HasActivity = true
		}
	}
	return summary, nil
}

// NeverLoggedIn returns the subset of accountIDs that have no recorded
// activity at all.
func (l *ActivityLog) NeverLoggedIn(ctx context.Context, accountIDs []string) ([]string, error) {
	active, err := l.store.ListAccountIDsWithActivity(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list active accounts", err)
	}
	activeSet := make(map[string]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}
	var never []string
	for _, id := range accountIDs {
		if !activeSet[id] {
			never = append(never, id)
		}
	}
	return never, nil
}

// InactiveSince returns the subset of accountIDs whose last recorded
// activity predates cutoff, or who have no activity at all.
func (l *ActivityLog) InactiveSince(ctx context.Context, accountIDs []string, cutoff time.Time) ([]string, error) {
	var inactive []string
	for _, id := range accountIDs {
		last, err := l.store.LastActivity(ctx, id)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "last activity", err)
		}
		if last == nil || last.CreatedAt.Before(cutoff) {
			inactive = append(inactive, id)
		}
	}
	return inactive, nil
}

// Cleanup deletes activity log entries older than retention, returning the
// number of rows removed.
func (l *ActivityLog) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-retention)
	n, err := l.store.DeleteActivityBefore(ctx, cutoff)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "delete old activity", err)
	}
	return n, nil
}
