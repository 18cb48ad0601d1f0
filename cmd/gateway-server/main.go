package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/asset-sharing-networks/ledgergate/internal/assets"
	"github.com/asset-sharing-networks/ledgergate/internal/ca"
	"github.com/asset-sharing-networks/ledgergate/internal/config"
	"github.com/asset-sharing-networks/ledgergate/internal/database"
	"github.com/asset-sharing-networks/ledgergate/internal/enroll"
	"github.com/asset-sharing-networks/ledgergate/internal/ledger"
	"github.com/asset-sharing-networks/ledgergate/internal/logger"
	"github.com/asset-sharing-networks/ledgergate/internal/server"
	"github.com/asset-sharing-networks/ledgergate/internal/token"
	"github.com/asset-sharing-networks/ledgergate/internal/version"
	"github.com/asset-sharing-networks/ledgergate/internal/wallet"
)

//	@title			gateway-server
//	@description	gateway-server is an HTTP facade over a Hyperledger Fabric network for
//	@description	creating, reading, listing, sharing and transferring opaque asset records.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	Ledger failures (including reads of unknown asset ids) are reported as
//	@description	`500` with a sanitized message; the underlying error is only logged.
//	@description
//	@description	## Authentication & Authorization
//	@description	No route requires credentials. The access token returned by /enrollUser is
//	@description	advisory only and is never checked by any other endpoint. Ledger calls are
//	@description	signed with the configured application identity; requests can act as a
//	@description	different enrolled identity via the X-Ledger-Identity header.
//	@description
//	@license.name	MIT

//	@accept		json
//	@produce	json

//	@tag.name			Assets
//	@tag.description	Asset record operations backed by the ledger

//	@tag.name			Identity
//	@tag.description	Identity enrollment against the certificate authority

//	@tag.name			Common
//	@tag.description	Server API endpoints (health, readiness, version)

func main() {
	cmd := &cobra.Command{
		Use:   "gateway-server",
		Short: "Asset record gateway server",
		Long:  `gateway-server exposes HTTP operations for identity enrollment and asset records stored on a Fabric ledger`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("PEER_ENDPOINT", cfg.PeerEndpoint),
		slog.String("CHANNEL_NAME", cfg.ChannelName),
		slog.String("CHAINCODE_NAME", cfg.ChaincodeName),
		slog.String("MSP_ID", cfg.MSPID),
		slog.String("CA_URL", cfg.CAURL),
		slog.String("LEDGER_USER_ID", cfg.LedgerUserID),
	)

	dbCtx, dbCancel := context.WithTimeout(context.Background(), cfg.DatabasePingTimeout)
	defer dbCancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		appLogger.Error("Failed to parse database URL", slog.String("error", err.Error()))
		os.Exit(1)
	}

	poolConfig.MaxConns = cfg.DBMaxConnections
	poolConfig.MinConns = cfg.DBMinConnections
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout

	pool, err := pgxpool.NewWithConfig(dbCtx, poolConfig)
	if err != nil {
		appLogger.Error("Unable to create connection pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err = pool.Ping(dbCtx); err != nil {
		appLogger.Error("Error pinging database via pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("connected to PostgreSQL")

	if err := database.Migrate(pool); err != nil {
		appLogger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// get the sqlc generated database queries
	queries := database.New(pool)
	store := wallet.NewPostgresStore(queries)

	caClient, err := ca.NewClient(cfg.CAURL, cfg.CAName, cfg.CATLSCertPath, cfg.CATimeout)
	if err != nil {
		appLogger.Error("Failed to create CA client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	enroller := enroll.NewManager(caClient, store, enroll.Config{
		MSPID:       cfg.MSPID,
		Affiliation: cfg.EnrollAffiliation,
		AdminID:     cfg.CAAdminID,
		AdminSecret: cfg.CAAdminSecret,
		SecretKey:   cfg.EnrollSecretKey,
	}, appLogger)

	connector, err := ledger.NewConnector(cfg, store, appLogger)
	if err != nil {
		appLogger.Error("Failed to create ledger connector", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = connector.Close() }()

	service := assets.NewService(connector, appLogger)
	issuer := token.NewIssuer(cfg.TokenSecret)

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// configure the server
	srv := server.NewServer(
		pool,
		queries,
		cfg,
		appLogger,
		service,
		enroller,
		issuer,
	)

	defer srv.DatabaseShutdown()

	// start the server
	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
