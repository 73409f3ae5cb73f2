// Package token issues and verifies the signed tokens the engine hands out:
// action tokens for email links, session tokens for status polling, and the
// access/refresh pair. All classes share one HS256 secret and differ only in
// purpose claim and lifetime.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose tags a token with the single operation it is valid for. Verify
// rejects a well-formed token presented for the wrong purpose.
type Purpose string

const (
	PurposeVerifyEmail Purpose = "verify_email"
	PurposeReset       Purpose = "password_reset"
	PurposeSession     Purpose = "session"
	PurposeAccess      Purpose = "access"
	PurposeRefresh     Purpose = "refresh"
)

var (
	// ErrExpired is returned for tokens that parsed and verified but are past
	// their expiry.
	ErrExpired = errors.New("token expired")
	// ErrMalformed is returned for every other verification failure: bad
	// signature, wrong algorithm, wrong purpose, or garbage input.
	ErrMalformed = errors.New("token malformed")
)

// Config configures a Codec. Secret is required; the zero values of the
// remaining fields are usable.
type Config struct {
	Secret []byte
	Issuer string
	Leeway time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Claims is the payload carried by every token class.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	Email   string  `json:"email,omitempty"`
	Role    string  `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Payload is the caller-supplied part of a token.
type Payload struct {
	AccountID string
	Email     string
	Role      string
	Purpose   Purpose
}

// Codec signs and verifies tokens with a shared HS256 secret.
type Codec struct {
	config Config
	now    func() time.Time
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires a secret")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Codec{config: cfg, now: now}, nil
}

// Issue signs a token for p with the given lifetime.
func (c *Codec) Issue(p Payload, ttl time.Duration) (string, error) {
	if p.AccountID == "" {
		return "", errors.New("empty subject")
	}
	if p.Purpose == "" {
		return "", errors.New("empty purpose")
	}
	if ttl <= 0 {
		return "", errors.New("invalid TTL")
	}

	issued := c.now()
	claims := Claims{
		Purpose: p.Purpose,
		Email:   p.Email,
		Role:    p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.AccountID,
			ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issued),
			Issuer:    c.config.Issuer,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.config.Secret)
}

// Verify parses tokenStr, checks the signature and expiry, and confirms the
// purpose claim. The two failure classes are distinguished: ErrExpired for
// well-formed tokens past their lifetime, ErrMalformed for everything else.
func (c *Codec) Verify(tokenStr string, want Purpose) (*Claims, error) {
	claims, err := c.parse(tokenStr)
	if err != nil {
		return nil, err
	}

	if claims.Purpose != want {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}

	return claims, nil
}

// IssuedAt returns the iat of a token that still verifies for the given
// purpose. Used to measure how recently a stored token was minted.
func (c *Codec) IssuedAt(tokenStr string, want Purpose) (time.Time, error) {
	claims, err := c.Verify(tokenStr, want)
	if err != nil {
		return time.Time{}, err
	}
	if claims.IssuedAt == nil {
		return time.Time{}, ErrMalformed
	}
	return claims.IssuedAt.Time, nil
}

// ExpiresAt returns the exp of a token that still verifies for the given
// purpose.
func (c *Codec) ExpiresAt(tokenStr string, want Purpose) (time.Time, error) {
	claims, err := c.Verify(tokenStr, want)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformed
	}
	return claims.ExpiresAt.Time, nil
}

func (c *Codec) parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrMalformed
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}
