package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"interview-platform/infrastructure"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return migrate(cmd.Context(), seed)
	},
}

var seed bool

func init() {
	migrateCmd.Flags().BoolVar(&seed, "seed", false, "insert a sample position when none exist")
	rootCmd.AddCommand(migrateCmd)
}

func migrate(ctx context.Context, seed bool) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := infrastructure.NewDatabase(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer infrastructure.CloseDatabase(db) //nolint:errcheck

	if err := infrastructure.Migrate(db); err != nil {
		return err
	}
	logger.Info("schema migrated", zap.String("driver", cfg.Database.Driver))

	if seed {
		if _, err := infrastructure.SeedPositions(ctx, db, logger); err != nil {
			return err
		}
	}
	return nil
}
