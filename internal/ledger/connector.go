// Package ledger binds gateway sessions to the Fabric network.
//
// One gRPC connection to the gateway peer is shared process-wide (it is safe
// for concurrent use); a client.Gateway is created per operation, bound to
// the acting identity, and closed when the operation returns. This keeps the
// connect/disconnect pair scoped to a single request so concurrent requests
// never race on a shared session.
package ledger

import (
	"context"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/asset-sharing-networks/ledgergate/internal/assets"
	"github.com/asset-sharing-networks/ledgergate/internal/config"
	"github.com/asset-sharing-networks/ledgergate/internal/wallet"
	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Connector creates per-operation gateway sessions.
type Connector struct {
	conn   *grpc.ClientConn
	store  wallet.Store
	logger *slog.Logger

	mspID     string
	channel   string
	chaincode string

	evaluateTimeout     time.Duration
	endorseTimeout      time.Duration
	submitTimeout       time.Duration
	commitStatusTimeout time.Duration
}

// NewConnector dials the gateway peer and returns a connector. The
// connection is lazy; a peer that is down surfaces as a failure on the first
// operation, not here.
func NewConnector(cfg *config.ServerEnvironment, store wallet.Store, logger *slog.Logger) (*Connector, error) {
	transportCredentials, err := transportCredentialsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := grpc.NewClient(cfg.PeerEndpoint, grpc.WithTransportCredentials(transportCredentials))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to %s: %w", cfg.PeerEndpoint, err)
	}

	logger.Info("gateway peer configured",
		slog.String("endpoint", cfg.PeerEndpoint),
		slog.String("channel", cfg.ChannelName),
		slog.String("chaincode", cfg.ChaincodeName))

	return &Connector{
		conn:                conn,
		store:               store,
		logger:              logger,
		mspID:               cfg.MSPID,
		channel:             cfg.ChannelName,
		chaincode:           cfg.ChaincodeName,
		evaluateTimeout:     cfg.EvaluateTimeout,
		endorseTimeout:      cfg.EndorseTimeout,
		submitTimeout:       cfg.SubmitTimeout,
		commitStatusTimeout: cfg.CommitStatusTimeout,
	}, nil
}

func transportCredentialsFromConfig(cfg *config.ServerEnvironment) (credentials.TransportCredentials, error) {
	if cfg.TLSCertPath == "" {
		return insecure.NewCredentials(), nil
	}

	pemData, err := os.ReadFile(cfg.TLSCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read peer TLS certificate: %w", err)
	}

	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("no certificates found in %s", cfg.TLSCertPath)
	}

	return credentials.NewClientTLSFromCert(certPool, cfg.GatewayPeer), nil
}

// Close releases the shared gRPC connection.
func (c *Connector) Close() error {
	return c.conn.Close()
}

// WithContract connects a gateway session as userID, resolves the configured
// channel and contract, runs fn against it, and closes the session whether or
// not fn succeeds.
func (c *Connector) WithContract(ctx context.Context, userID string, fn assets.SessionFunc) error {
	creds, err := c.store.Get(ctx, c.mspID, userID)
	if err != nil {
		return assets.WrapLedgerError(err, fmt.Sprintf("identity %q is not enrolled", userID))
	}

	certificate, err := identity.CertificateFromPEM(creds.Certificate)
	if err != nil {
		return assets.WrapLedgerError(err, "stored certificate is invalid")
	}

	id, err := identity.NewX509Identity(c.mspID, certificate)
	if err != nil {
		return assets.WrapLedgerError(err, "failed to build X.509 identity")
	}

	privateKey, err := identity.PrivateKeyFromPEM(creds.PrivateKey)
	if err != nil {
		return assets.WrapLedgerError(err, "stored private key is invalid")
	}

	sign, err := identity.NewPrivateKeySign(privateKey)
	if err != nil {
		return assets.WrapLedgerError(err, "failed to build signer")
	}

	gateway, err := client.Connect(
		id,
		client.WithSign(sign),
		client.WithClientConnection(c.conn),
		client.WithEvaluateTimeout(c.evaluateTimeout),
		client.WithEndorseTimeout(c.endorseTimeout),
		client.WithSubmitTimeout(c.submitTimeout),
		client.WithCommitStatusTimeout(c.commitStatusTimeout),
	)
	if err != nil {
		return assets.WrapLedgerError(err, "failed to connect to gateway")
	}
	defer gateway.Close()

	contract := gateway.GetNetwork(c.channel).GetContract(c.chaincode)

	return fn(&contractInvoker{contract: contract})
}

// contractInvoker adapts a Fabric contract to the assets.ContractInvoker
// interface.
type contractInvoker struct {
	contract *client.Contract
}

func (i *contractInvoker) Evaluate(name string, args ...string) ([]byte, error) {
	return i.contract.EvaluateTransaction(name, args...)
}

func (i *contractInvoker) Submit(name string, args ...string) ([]byte, error) {
	return i.contract.SubmitTransaction(name, args...)
}
