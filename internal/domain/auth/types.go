// Package auth contains the domain types and logic for account
// authentication: password hashing, bearer-token issuance/validation, and
// account activity logging (spec.md §4.7).
package auth

import (
	"time"
)

// Grant1x is a TAXII 1.x permission grant.
type Grant1x string

const (
	GrantRead1x   Grant1x = "read"
	GrantModify1x Grant1x = "modify"
)

// Grant2x is a TAXII 2.1 permission grant.
type Grant2x string

const (
	GrantRead2x  Grant2x = "read"
	GrantWrite2x Grant2x = "write"
)

// Account is an authenticated principal. Permissions maps a collection key
// (a name for TAXII 1.x, a UUID string for TAXII 2.1) to its grant list;
// storage keeps both grant vocabularies as plain strings since a single
// account may hold permissions on both protocol surfaces.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	IsAdmin      bool
	Permissions  map[string][]string
}

// HasGrant reports whether the account's permissions for collectionKey
// include grant.
func (a *Account) HasGrant(collectionKey, grant string) bool {
	for _, g := range a.Permissions[collectionKey] {
		if g == grant {
			return true
		}
	}
	return false
}

// EventType discriminates an account activity log entry.
type EventType string

const (
	EventLoginSuccess EventType = "login_success"
	EventLoginFailed  EventType = "login_failed"
)

// Activity is one recorded authentication attempt (spec.md §4.7).
type Activity struct {
	ID        string
	AccountID string
	EventType EventType
	IP        string
	UserAgent string
	CreatedAt time.Time
}
