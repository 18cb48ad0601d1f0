// Package token issues the mock access tokens attached to enrollment
// responses.
//
// These are real HS256 JWTs but the secret ships with the deployment config
// and nothing in the gateway ever checks them before serving a request. They
// exist so frontend clients that expect a bearer token keep working; do not
// mistake them for an authorization mechanism.
package token

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const (
	issuerName = "ledgergate"
	tokenTTL   = 7 * 24 * time.Hour
)

// Issuer mints and checks mock access tokens.
type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue returns a signed JWT for the given email, valid for seven days.
func (i *Issuer) Issue(email string) (string, error) {
	now := time.Now()

	tok, err := jwt.NewBuilder().
		Issuer(issuerName).
		IssuedAt(now).
		Expiration(now.Add(tokenTTL)).
		Claim("email", email).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), i.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Verify reports whether the token was signed with this issuer's secret and
// has not expired.
func (i *Issuer) Verify(tokenString string) bool {
	_, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256(), i.secret),
		jwt.WithValidate(true),
	)
	return err == nil
}
