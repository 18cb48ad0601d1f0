package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/asset-sharing-networks/ledgergate/internal/ca"
	"github.com/asset-sharing-networks/ledgergate/internal/database"
	"github.com/asset-sharing-networks/ledgergate/internal/enroll"
	"github.com/asset-sharing-networks/ledgergate/internal/wallet"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [user-id...]",
	Short: "Enroll the admin identity and any named user identities",
	Long: `enroll bootstraps the CA admin identity and registers/enrolls each named
user. Already-enrolled identities are skipped. With no arguments only the
admin and the configured LEDGER_USER_ID are enrolled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, queries, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		caClient, err := ca.NewClient(cfg.CAURL, cfg.CAName, cfg.CATLSCertPath, cfg.CATimeout)
		if err != nil {
			return fmt.Errorf("failed to create CA client: %w", err)
		}

		manager := enroll.NewManager(caClient, wallet.NewPostgresStore(queries), enroll.Config{
			MSPID:       cfg.MSPID,
			Affiliation: cfg.EnrollAffiliation,
			AdminID:     cfg.CAAdminID,
			AdminSecret: cfg.CAAdminSecret,
			SecretKey:   cfg.EnrollSecretKey,
		}, appLogger)

		if err := manager.EnsureAdminEnrolled(ctx); err != nil {
			return err
		}

		userIDs := args
		if len(userIDs) == 0 {
			userIDs = []string{cfg.LedgerUserID}
		}

		for _, userID := range userIDs {
			if err := manager.EnsureUserEnrolled(ctx, userID); err != nil {
				return err
			}
			appLogger.Info("identity ready", slog.String("user_id", userID))
		}

		return nil
	},
}

func openDatabase(ctx context.Context) (*pgxpool.Pool, *database.Queries, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.Migrate(pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return pool, database.New(pool), nil
}
