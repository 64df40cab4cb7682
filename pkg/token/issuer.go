// Package token issues and verifies the short-lived signed tokens the
// operator's client presents to the external signaling/transport layer.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned on any verification failure: bad
// signature, unexpected algorithm, malformed token, or expiry.
var ErrInvalidToken = errors.New("invalid token")

// DefaultTTL is the token lifetime. Ending a session does not revoke
// tokens already issued for it; callers relying on immediate revocation
// must account for this window.
const DefaultTTL = time.Hour

// Payload is the session scope embedded in a token.
type Payload struct {
	SessionID   string   `json:"sessionId"`
	AssetID     string   `json:"assetId"`
	OrgID       string   `json:"orgId"`
	UserID      string   `json:"userId"`
	Permissions []string `json:"permissions"`
}

// claims is the JWT claim set carrying a Payload.
type claims struct {
	SessionID   string   `json:"sid"`
	AssetID     string   `json:"aid"`
	OrgID       string   `json:"org"`
	Permissions []string `json:"perms"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with a shared HMAC secret.
// Stateless: no registry lookup and no revocation list.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	// now is overridable for expiry tests.
	now func() time.Time
}

// NewIssuer creates an Issuer with the default TTL.
func NewIssuer(secret []byte) (*Issuer, error) {
	return NewIssuerTTL(secret, DefaultTTL)
}

// NewIssuerTTL creates an Issuer with an explicit TTL.
func NewIssuerTTL(secret []byte, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token signing secret must not be empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %s", ttl)
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue signs the payload into a compact HS256 token with the issuer's TTL.
func (i *Issuer) Issue(p Payload) (string, error) {
	now := i.now()
	c := claims{
		SessionID:   p.SessionID,
		AssetID:     p.AssetID,
		OrgID:       p.OrgID,
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the decoded
// payload. Any failure maps to ErrInvalidToken; valid signature plus
// unexpired TTL is the only validity check.
func (i *Issuer) Verify(tokenString string) (*Payload, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return &Payload{
		SessionID:   c.SessionID,
		AssetID:     c.AssetID,
		OrgID:       c.OrgID,
		UserID:      c.Subject,
		Permissions: c.Permissions,
	}, nil
}
