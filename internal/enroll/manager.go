// Package enroll onboards identities against the certificate authority.
//
// Enrollment is idempotent: if credentials already exist in the wallet the CA
// is never contacted. A partially onboarded identity (registered with the CA
// but never enrolled) is recoverable because registration uses a
// deterministic secret — re-running enrollment registers again, tolerates the
// "already registered" rejection, and enrolls with the same secret.
package enroll

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/asset-sharing-networks/ledgergate/internal/assets"
	"github.com/asset-sharing-networks/ledgergate/internal/ca"
	"github.com/asset-sharing-networks/ledgergate/internal/wallet"
)

// CAClient is the certificate authority surface the manager depends on.
type CAClient interface {
	Register(ctx context.Context, registrar ca.Identity, req ca.RegistrationRequest) (string, error)
	Enroll(ctx context.Context, id, secret string) (certPEM, keyPEM []byte, err error)
}

// Config carries the organization-level enrollment settings.
type Config struct {
	MSPID       string
	Affiliation string

	// bootstrap registrar credentials for the CA
	AdminID     string
	AdminSecret string

	// SecretKey derives per-user enrollment secrets. It must stay stable
	// across restarts or partially registered identities become
	// unrecoverable.
	SecretKey string
}

// Manager ensures admin and user identities are enrolled and stored.
type Manager struct {
	ca     CAClient
	store  wallet.Store
	config Config
	logger *slog.Logger

	// serializes enrollment; CA registration is not safe to race against
	// itself for the same identity
	mu sync.Mutex
}

func NewManager(caClient CAClient, store wallet.Store, config Config, logger *slog.Logger) *Manager {
	return &Manager{
		ca:     caClient,
		store:  store,
		config: config,
		logger: logger,
	}
}

// EnsureAdminEnrolled enrolls the CA bootstrap admin if its credentials are
// not already in the wallet.
func (m *Manager) EnsureAdminEnrolled(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureAdminEnrolled(ctx)
}

func (m *Manager) ensureAdminEnrolled(ctx context.Context) error {
	exists, err := m.store.Exists(ctx, m.config.MSPID, m.config.AdminID)
	if err != nil {
		return assets.WrapEnrollmentError(err, "failed to check admin credentials")
	}
	if exists {
		return nil
	}

	certPEM, keyPEM, err := m.ca.Enroll(ctx, m.config.AdminID, m.config.AdminSecret)
	if err != nil {
		return assets.WrapEnrollmentError(err, "failed to enroll admin")
	}

	err = m.store.Put(ctx, &wallet.Credentials{
		OrgID:       m.config.MSPID,
		UserID:      m.config.AdminID,
		Certificate: certPEM,
		PrivateKey:  keyPEM,
	})
	if err != nil {
		return assets.WrapEnrollmentError(err, "failed to store admin credentials")
	}

	m.logger.Info("admin identity enrolled",
		slog.String("msp_id", m.config.MSPID),
		slog.String("user_id", m.config.AdminID))

	return nil
}

// EnsureUserEnrolled registers and enrolls userID if its credentials are not
// already in the wallet. Repeated calls for the same user perform the CA
// round trip at most once.
func (m *Manager) EnsureUserEnrolled(ctx context.Context, userID string) error {
	if userID == "" {
		return assets.NewEnrollmentError("user id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	exists, err := m.store.Exists(ctx, m.config.MSPID, userID)
	if err != nil {
		return assets.WrapEnrollmentError(err, "failed to check user credentials")
	}
	if exists {
		return nil
	}

	if err := m.ensureAdminEnrolled(ctx); err != nil {
		return err
	}

	admin, err := m.store.Get(ctx, m.config.MSPID, m.config.AdminID)
	if err != nil {
		return assets.WrapEnrollmentError(err, "failed to load admin credentials")
	}

	secret := m.enrollmentSecret(userID)

	registrar := ca.Identity{CertPEM: admin.Certificate, KeyPEM: admin.PrivateKey}
	_, err = m.ca.Register(ctx, registrar, ca.RegistrationRequest{
		Name:        userID,
		Type:        "client",
		Secret:      secret,
		Affiliation: m.config.Affiliation,
	})
	if err != nil && !ca.IsAlreadyRegistered(err) {
		return assets.WrapEnrollmentError(err, "failed to register user")
	}
	if err != nil {
		// registered on an earlier attempt that died before enrolling;
		// the deterministic secret lets enrollment proceed
		m.logger.Warn("user already registered, continuing to enrollment",
			slog.String("user_id", userID))
	}

	certPEM, keyPEM, err := m.ca.Enroll(ctx, userID, secret)
	if err != nil {
		return assets.WrapEnrollmentError(err, "failed to enroll user")
	}

	err = m.store.Put(ctx, &wallet.Credentials{
		OrgID:       m.config.MSPID,
		UserID:      userID,
		Certificate: certPEM,
		PrivateKey:  keyPEM,
	})
	if err != nil {
		return assets.WrapEnrollmentError(err, "failed to store user credentials")
	}

	m.logger.Info("user identity enrolled",
		slog.String("msp_id", m.config.MSPID),
		slog.String("user_id", userID))

	return nil
}

// enrollmentSecret derives a stable per-user secret so that retried
// enrollments can complete a registration left behind by a failed attempt.
func (m *Manager) enrollmentSecret(userID string) string {
	mac := hmac.New(sha256.New, []byte(m.config.SecretKey))
	mac.Write([]byte(m.config.MSPID))
	mac.Write([]byte{0})
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil)[:16])
}
