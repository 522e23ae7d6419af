package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/scrypt"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
)

// scrypt parameters (spec.md §4.7): N=32768, r=8, p=1, 64-byte output,
// 16-byte random salt.
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64
	scryptSalt   = 16
)

// HashPassword returns the scrypt hash of password in the stored format
// `scrypt:N:r:p$<salt-base64url-nopad>$<hex-hash>`.
func HashPassword(password string) (string, error) {
	salt := make([]byte, scryptSalt)
	if _, err := rand.Read(salt); err != nil {
		return "", apperr.Wrap(apperr.Internal, "generate salt", err)
	}
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "scrypt hash", err)
	}
	return fmt.Sprintf("scrypt:%d:%d:%d$%s$%s",
		scryptN, scryptR, scryptP,
		base64.RawURLEncoding.EncodeToString(salt),
		hex.EncodeToString(key)), nil
}

// hashKind identifies the hashing scheme used by a stored password hash.
type hashKind int

const (
	hashUnknown hashKind = iota
	hashScrypt
	hashArgon2idLegacy
)

// detectHashKind identifies the hash algorithm used for a stored hash,
// generalizing the teacher's DetectHashType dispatch to scrypt-primary with
// an argon2id legacy verify path.
func detectHashKind(stored string) hashKind {
	if strings.HasPrefix(stored, "scrypt:") {
		return hashScrypt
	}
	if strings.HasPrefix(stored, "$argon2id$") {
		return hashArgon2idLegacy
	}
	return hashUnknown
}

// VerifyPassword checks password against stored, dispatching on the stored
// hash's scheme. Comparison is constant-time for both schemes, independent
// of where in the digest a mismatch first occurs.
func VerifyPassword(password, stored string) (bool, error) {
	switch detectHashKind(stored) {
	case hashScrypt:
		return verifyScrypt(password, stored)
	case hashArgon2idLegacy:
		return argon2id.ComparePasswordAndHash(password, stored)
	default:
		return false, apperr.New(apperr.Internal, "unrecognized password hash format")
	}
}

func verifyScrypt(password, stored string) (bool, error) {
	header, rest, ok := strings.Cut(stored, "$")
	if !ok {
		return false, apperr.New(apperr.Internal, "malformed scrypt hash")
	}
	saltPart, hashPart, ok := strings.Cut(rest, "$")
	if !ok {
		return false, apperr.New(apperr.Internal, "malformed scrypt hash")
	}

	params := strings.Split(header, ":")
	if len(params) != 4 || params[0] != "scrypt" {
		return false, apperr.New(apperr.Internal, "malformed scrypt header")
	}
	n, err1 := strconv.Atoi(params[1])
	r, err2 := strconv.Atoi(params[2])
	p, err3 := strconv.Atoi(params[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return false, apperr.New(apperr.Internal, "malformed scrypt parameters")
	}

	salt, err := base64.RawURLEncoding.DecodeString(saltPart)
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "decode scrypt salt", err)
	}
	expected, err := hex.DecodeString(hashPart)
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "decode scrypt hash", err)
	}

	computed, err := scrypt.Key([]byte(password), salt, n, r, p, len(expected))
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "scrypt hash", err)
	}
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
