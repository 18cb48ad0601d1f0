package cli

import (
	"fmt"

	"github.com/asset-sharing-networks/ledgergate/internal/wallet"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report database connectivity and enrollment state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, queries, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if _, err := queries.IsDatabaseRunning(ctx); err != nil {
			return fmt.Errorf("database is not reachable: %w", err)
		}
		fmt.Println("database: ok")

		store := wallet.NewPostgresStore(queries)

		for _, userID := range []string{cfg.CAAdminID, cfg.LedgerUserID} {
			exists, err := store.Exists(ctx, cfg.MSPID, userID)
			if err != nil {
				return err
			}
			state := "not enrolled"
			if exists {
				state = "enrolled"
			}
			fmt.Printf("%s/%s: %s\n", cfg.MSPID, userID, state)
		}

		return nil
	},
}
