// Package authz implements per-collection read/write authorization
// decisions over (account, collection) (spec.md §4.7).
package authz

import (
	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

// Collection is the minimal view of a collection authz needs: its
// permission key (name for TAXII 1.x, UUID string for TAXII 2.1) and, for
// TAXII 2.1 collections, whether it is publicly readable/writable.
type Collection struct {
	Key           string
	IsPublic      bool
	IsPublicWrite bool
}

// CanRead reports whether account may read collection.
//
//   - Admin accounts can always read.
//   - A TAXII 2.1 collection's IsPublic flag grants read to anyone,
//     including an anonymous (nil) account.
//   - Otherwise the account's permissions map decides.
func CanRead(collection Collection, account *auth.Account) bool {
	if account != nil && account.IsAdmin {
		return true
	}
	if collection.IsPublic {
		return true
	}
	if account == nil {
		return false
	}
	return account.HasGrant(collection.Key, "read") || account.HasGrant(collection.Key, "modify")
}

// CanWrite reports whether account may write collection. TAXII 1.x grants
// "modify" in place of "write"; both are treated as the write grant for
// their respective surfaces, so whichever was stored is checked.
func CanWrite(collection Collection, account *auth.Account) bool {
	if account != nil && account.IsAdmin {
		return true
	}
	if collection.IsPublicWrite {
		return true
	}
	if account == nil {
		return false
	}
	return account.HasGrant(collection.Key, "write") || account.HasGrant(collection.Key, "modify")
}
