// Package wallet stores enrollment credentials keyed by (org, user).
//
// A credential is written once when an identity is enrolled and never
// updated or deleted. The ledger connector reads credentials on every
// operation; no caching happens here because enrollment is immutable.
package wallet

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no credentials exist for the requested identity.
var ErrNotFound = errors.New("identity not found in wallet")

// Credentials holds the enrollment certificate and private key for one
// identity, both PEM encoded.
type Credentials struct {
	OrgID       string
	UserID      string
	Certificate []byte
	PrivateKey  []byte
}

// Store is the credential persistence interface.
//
// Put must be a no-op (not an error) when credentials for the same
// (OrgID, UserID) already exist: enrollment is idempotent and concurrent
// enrollments of the same user must not clobber each other.
type Store interface {
	Get(ctx context.Context, orgID, userID string) (*Credentials, error)
	Put(ctx context.Context, creds *Credentials) error
	Exists(ctx context.Context, orgID, userID string) (bool, error)
}
