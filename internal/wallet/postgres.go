package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/asset-sharing-networks/ledgergate/internal/database"
	"github.com/jackc/pgx/v5"
)

// PostgresStore persists credentials in the identities table.
type PostgresStore struct {
	queries *database.Queries
}

func NewPostgresStore(queries *database.Queries) *PostgresStore {
	return &PostgresStore{queries: queries}
}

func (s *PostgresStore) Get(ctx context.Context, orgID, userID string) (*Credentials, error) {
	identity, err := s.queries.GetIdentity(ctx, database.GetIdentityParams{
		OrgID:  orgID,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load identity %s/%s: %w", orgID, userID, err)
	}

	return &Credentials{
		OrgID:       identity.OrgID,
		UserID:      identity.UserID,
		Certificate: identity.Certificate,
		PrivateKey:  identity.PrivateKey,
	}, nil
}

// Put inserts the credentials. A concurrent insert for the same identity wins
// the race silently (ON CONFLICT DO NOTHING) so enrollment stays idempotent.
func (s *PostgresStore) Put(ctx context.Context, creds *Credentials) error {
	_, err := s.queries.CreateIdentity(ctx, database.CreateIdentityParams{
		OrgID:       creds.OrgID,
		UserID:      creds.UserID,
		Certificate: creds.Certificate,
		PrivateKey:  creds.PrivateKey,
	})
	if err != nil {
		return fmt.Errorf("failed to store identity %s/%s: %w", creds.OrgID, creds.UserID, err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, orgID, userID string) (bool, error) {
	exists, err := s.queries.IdentityExists(ctx, database.IdentityExistsParams{
		OrgID:  orgID,
		UserID: userID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check identity %s/%s: %w", orgID, userID, err)
	}
	return exists, nil
}
