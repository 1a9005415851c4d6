// Package token mints and verifies stateless access tokens.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/services/identity/identity"
)

var (
	// ErrTokenInvalid indicates a token that failed signature or claim checks.
	ErrTokenInvalid = apperrors.New(apperrors.CodeTokenInvalid, "token is invalid")
	// ErrTokenExpired indicates a token past its expiry.
	ErrTokenExpired = apperrors.New(apperrors.CodeTokenExpired, "token has expired")
)

// Config holds signing configuration.
type Config struct {
	Secret string        `env:"PORTAL_JWT_SECRET"`
	TTL    time.Duration `env:"PORTAL_JWT_TTL" envDefault:"24h"`
}

// Issuer signs and verifies HS256 tokens carrying an identity id and the
// partition it resolved from.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type claims struct {
	Partition string `json:"partition"`
	jwt.RegisteredClaims
}

// New creates a token issuer.
func New(cfg Config) (*Issuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}, nil
}

// NewWithClock creates an issuer with an injected clock.
func NewWithClock(cfg Config, now func() time.Time) (*Issuer, error) {
	issuer, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if now != nil {
		issuer.now = now
	}
	return issuer, nil
}

// Mint signs a token for a resolved identity.
func (i *Issuer) Mint(identityID string, partition identity.Role) (string, error) {
	if strings.TrimSpace(identityID) == "" {
		return "", fmt.Errorf("identity id is required")
	}
	issuedAt := i.now().UTC()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Partition: string(partition),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
	})
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a token and returns the identity id and partition it carries.
func (i *Issuer) Verify(tokenString string) (string, identity.Role, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrTokenExpired
		}
		return "", "", ErrTokenInvalid
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return "", "", ErrTokenInvalid
	}
	return c.Subject, identity.Role(c.Partition), nil
}
