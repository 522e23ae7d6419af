package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
)

// DefaultTokenTTL is the default bearer-token lifetime (spec.md §4.7).
const DefaultTokenTTL = 30 * time.Minute

// Claims are the JWT claims carried by a TAXII bearer token.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates bearer tokens with a symmetric server
// secret. The secret is read-only for the lifetime of the process; rotation
// requires a restart (spec.md §5).
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer with the given HMAC secret and token TTL.
// A zero ttl defaults to DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue mints a signed bearer token for accountID.
func (i *TokenIssuer) Issue(accountID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "sign token", err)
	}
	return signed, nil
}

// Validate parses and verifies a bearer token, returning its account id.
// Expired, malformed, or bad-signature tokens are rejected as Unauthorized.
func (i *TokenIssuer) Validate(raw string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Newf(apperr.Unauthorized, "unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperr.Wrap(apperr.Unauthorized, "invalid bearer token", err)
	}
	if claims.AccountID == "" {
		return "", apperr.New(apperr.Unauthorized, "token missing account_id claim")
	}
	return claims.AccountID, nil
}
