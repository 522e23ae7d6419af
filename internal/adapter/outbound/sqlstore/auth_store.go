package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

// AuthStore implements auth.AccountStore against the accounts table.
type AuthStore struct {
	store *Store
}

// NewAuthStore wraps store for account persistence.
func NewAuthStore(store *Store) *AuthStore {
	return &AuthStore{store: store}
}

func scanAccount(row interface{ Scan(...any) error }) (*auth.Account, error) {
	var (
		acct      auth.Account
		isAdmin   int
		permsJSON string
	)
	if err := row.Scan(&acct.ID, &acct.Username, &acct.PasswordHash, &isAdmin, &permsJSON); err != nil {
		return nil, err
	}
	acct.IsAdmin = isAdmin != 0
	if permsJSON != "" {
		if err := json.Unmarshal([]byte(permsJSON), &acct.Permissions); err != nil {
			return nil, fmt.Errorf("sqlstore: decode permissions: %w", err)
		}
	}
	return &acct, nil
}

func (s *AuthStore) GetAccountByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_admin, permissions FROM accounts WHERE username = ?`, username)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *AuthStore) GetAccount(ctx context.Context, id string) (*auth.Account, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_admin, permissions FROM accounts WHERE id = ?`, id)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *AuthStore) CreateAccount(ctx context.Context, acct *auth.Account) error {
	permsJSON, err := json.Marshal(acct.Permissions)
	if err != nil {
		return fmt.Errorf("sqlstore: encode permissions: %w", err)
	}
	_, err = s.store.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, password_hash, is_admin, permissions) VALUES (?, ?, ?, ?, ?)`,
		acct.ID, acct.Username, acct.PasswordHash, boolToInt(acct.IsAdmin), string(permsJSON))
	if isUniqueConstraintErr(err) {
		return auth.ErrUsernameTaken
	}
	return err
}

func (s *AuthStore) UpdateAccount(ctx context.Context, acct *auth.Account) error {
	permsJSON, err := json.Marshal(acct.Permissions)
	if err != nil {
		return fmt.Errorf("sqlstore: encode permissions: %w", err)
	}
	result, err := s.store.db.ExecContext(ctx,
		`UPDATE accounts SET username = ?, password_hash = ?, is_admin = ?, permissions = ? WHERE id = ?`,
		acct.Username, acct.PasswordHash, boolToInt(acct.IsAdmin), string(permsJSON), acct.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ auth.AccountStore = (*AuthStore)(nil)
