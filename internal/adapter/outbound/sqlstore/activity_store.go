package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

// ActivityStore implements auth.ActivityStore against account_activity.
type ActivityStore struct {
	store *Store
}

// NewActivityStore wraps store for activity logging.
func NewActivityStore(store *Store) *ActivityStore {
	return &ActivityStore{store: store}
}

func (s *ActivityStore) RecordActivity(ctx context.Context, entry auth.Activity) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.store.db.ExecContext(ctx,
		`INSERT INTO account_activity (id, account_id, event_type, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.AccountID, string(entry.EventType), entry.IP, entry.UserAgent, formatTime(entry.CreatedAt))
	return err
}

func (s *ActivityStore) ListActivity(ctx context.Context, accountID string, since time.Time) ([]auth.Activity, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id, account_id, event_type, ip_address, user_agent, created_at
		 FROM account_activity WHERE account_id = ? AND created_at >= ? ORDER BY created_at`,
		accountID, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivities(rows)
}

func (s *ActivityStore) LastActivity(ctx context.Context, accountID string) (*auth.Activity, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id, account_id, event_type, ip_address, user_agent, created_at
		 FROM account_activity WHERE account_id = ? ORDER BY created_at DESC LIMIT 1`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries, err := scanActivities(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (s *ActivityStore) ListAccountIDsWithActivity(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT DISTINCT account_id FROM account_activity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *ActivityStore) DeleteActivityBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.store.db.ExecContext(ctx, `DELETE FROM account_activity WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func scanActivities(rows *sql.Rows) ([]auth.Activity, error) {
	var out []auth.Activity
	for rows.Next() {
		var (
			a             auth.Activity
			eventType     string
			createdAtText string
		)
		if err := rows.Scan(&a.ID, &a.AccountID, &eventType, &a.IP, &a.UserAgent, &createdAtText); err != nil {
			return nil, err
		}
		a.EventType = auth.EventType(eventType)
		createdAt, err := parseTime(createdAtText)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: parse created_at: %w", err)
		}
		a.CreatedAt = createdAt
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ auth.ActivityStore = (*ActivityStore)(nil)
