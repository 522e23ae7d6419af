// Package memory provides in-memory implementations of the outbound ports:
// auth/activity storage and both TAXII repositories, for development and
// tests (spec.md §4.6, §4.7).
package memory

import (
	"context"
	"sync"

	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

// AuthStore implements auth.AccountStore with an in-memory map. Thread-safe
// for concurrent access. Cloning a value does not copy the underlying data;
// construct once per server instance.
type AuthStore struct {
	mu       sync.RWMutex
	accounts map[string]*auth.Account // id -> Account
	byName   map[string]string        // username -> id
}

// NewAuthStore creates an empty in-memory account store.
func NewAuthStore() *AuthStore {
	return &AuthStore{
		accounts: make(map[string]*auth.Account),
		byName:   make(map[string]string),
	}
}

func (s *AuthStore) GetAccountByUsername(ctx context.Context, username string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[username]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	acct := *s.accounts[id]
	return &acct, nil
}

func (s *AuthStore) GetAccount(ctx context.Context, id string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (s *AuthStore) CreateAccount(ctx context.Context, acct *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[acct.Username]; exists {
		return auth.ErrUsernameTaken
	}
	cp := *acct
	s.accounts[acct.ID] = &cp
	s.byName[acct.Username] = acct.ID
	return nil
}

func (s *AuthStore) UpdateAccount(ctx context.Context, acct *auth.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[acct.ID]; !exists {
		return auth.ErrAccountNotFound
	}
	cp := *acct
	s.accounts[acct.ID] = &cp
	return nil
}

var _ auth.AccountStore = (*AuthStore)(nil)
