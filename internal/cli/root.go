// Package cli implements the gateway-admin operator CLI.
package cli

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/asset-sharing-networks/ledgergate/internal/config"
	"github.com/asset-sharing-networks/ledgergate/internal/logger"
	"github.com/asset-sharing-networks/ledgergate/internal/version"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.ServerEnvironment
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "gateway-admin",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Asset record gateway admin CLI",
	Long:              `gateway-admin manages ledger identities for the asset record gateway`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewServerConfig()
		if err != nil {
			log.Printf("failed to load configuration: %v", err.Error())
			return err
		}

		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
		return nil
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(statusCmd)
}
