package authz

import (
	"testing"

	"github.com/darwis-taxii/taxii-server/internal/domain/auth"
)

func TestCanReadAdminAlwaysTrue(t *testing.T) {
	acct := &auth.Account{IsAdmin: true}
	if !CanRead(Collection{Key: "c1"}, acct) {
		t.Error("expected admin to read any collection")
	}
}

func TestCanReadPublicCollection(t *testing.T) {
	if !CanRead(Collection{Key: "c1", IsPublic: true}, nil) {
		t.Error("expected public collection to be readable by anonymous account")
	}
}

func TestCanReadPermissionGrant(t *testing.T) {
	acct := &auth.Account{Permissions: map[string][]string{"c1": {"read"}}}
	if !CanRead(Collection{Key: "c1"}, acct) {
		t.Error("expected read grant to permit read")
	}
	if CanRead(Collection{Key: "c2"}, acct) {
		t.Error("expected no grant on a different collection to deny read")
	}
}

func TestCanWriteRequiresGrant(t *testing.T) {
	acct := &auth.Account{Permissions: map[string][]string{"c1": {"read"}}}
	if CanWrite(Collection{Key: "c1"}, acct) {
		t.Error("expected read-only grant to deny write")
	}

	writer := &auth.Account{Permissions: map[string][]string{"c1": {"write"}}}
	if !CanWrite(Collection{Key: "c1"}, writer) {
		t.Error("expected write grant to permit write")
	}
}

func TestCanWriteTaxii1ModifyGrant(t *testing.T) {
	acct := &auth.Account{Permissions: map[string][]string{"feed-1": {"modify"}}}
	if !CanWrite(Collection{Key: "feed-1"}, acct) {
		t.Error("expected TAXII 1.x modify grant to permit write")
	}
}

func TestCanWriteAnonymousDeniedOnNonPublic(t *testing.T) {
	if CanWrite(Collection{Key: "c1"}, nil) {
		t.Error("expected anonymous account to be denied write on non-public collection")
	}
}
