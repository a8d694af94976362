package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claims mirror the session tokens Supabase issues so the same token passes
// PostgREST row-level security.
type claims struct {
	Email       string `json:"email,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a session token for id.
func (t *Tokens) Issue(id Identity) (string, time.Time, error) {
	if !id.SignedIn() {
		return "", time.Time{}, errors.New("cannot issue a token for a signed-out identity")
	}
	now := t.now()
	expiresAt := now.Add(t.ttl)
	c := claims{
		Email:       id.Email,
		IsAnonymous: id.State == Anonymous,
		Role:        "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates a session token and returns the identity it names.
func (t *Tokens) Parse(token string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}
	if c.Subject == "" {
		return Identity{}, errors.New("invalid token: missing subject")
	}

	id := Identity{ID: c.Subject, Email: c.Email, State: Permanent}
	if c.IsAnonymous {
		id.State = Anonymous
		id.Email = ""
	}
	return id, nil
}
