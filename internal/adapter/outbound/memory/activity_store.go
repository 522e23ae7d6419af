package memory

import (
	"context"
	"sync"
	"time"

	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

// ActivityStore implements auth.ActivityStore with an in-memory slice.
type ActivityStore struct {
	mu      sync.RWMutex
	entries []auth.Activity
	seq     int
}

// NewActivityStore creates an empty in-memory activity store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{}
}

func (s *ActivityStore) RecordActivity(ctx context.Context, entry auth.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	entry.ID = idFromSeq(s.seq)
	s.entries = append(s.entries, entry)
	return nil
}

func (s *ActivityStore) ListActivity(ctx context.Context, accountID string, since time.Time) ([]auth.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []auth.Activity
	for _, e := range s.entries {
		if e.AccountID == accountID && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *ActivityStore) LastActivity(ctx context.Context, accountID string) (*auth.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last *auth.Activity
	for i := range s.entries {
		e := s.entries[i]
		if e.AccountID != accountID {
			continue
		}
		if last == nil || e.CreatedAt.After(last.CreatedAt) {
			last = &e
		}
	}
	return last, nil
}

func (s *ActivityStore) ListAccountIDsWithActivity(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, e := range s.entries {
		if !seen[e.AccountID] {
			seen[e.AccountID] = true
			out = append(out, e.AccountID)
		}
	}
	return out, nil
}

func (s *ActivityStore) DeleteActivityBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []auth.Activity
	removed := 0
	for _, e := range s.entries {
		if e.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed, nil
}

var _ auth.ActivityStore = (*ActivityStore)(nil)
