// Package token mints and verifies occupant tokens. A token is the only
// credential tying a client to a seat: presenting the same token later
// reclaims the seat after a disconnect.
package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/midgame-live/midgame/internal/platform/id"
)

const issuer = "midgame"

// Minter signs HS256 occupant tokens. Tokens carry no expiry: a seat
// claim is valid for the life of its session.
type Minter struct {
	secret []byte
	now    func() time.Time
}

// NewMinter builds a minter over the signing secret.
func NewMinter(secret []byte, now func() time.Time) (*Minter, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token secret is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Minter{secret: secret, now: now}, nil
}

// Mint issues a fresh occupant token with a random subject. The subject
// is what the session records against the seat.
func (m *Minter) Mint() (token string, subject string, err error) {
	subject, err = id.NewID()
	if err != nil {
		return "", "", fmt.Errorf("generate token subject: %w", err)
	}
	claims := jwt.RegisteredClaims{
		Issuer:   issuer,
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(m.now().UTC()),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign occupant token: %w", err)
	}
	return token, subject, nil
}

// Verify checks the token's signature and returns its subject.
func (m *Minter) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("occupant token is required")
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return "", fmt.Errorf("verify occupant token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("occupant token has no subject")
	}
	return claims.Subject, nil
}
