package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume result scoring jobs and expire stale interviews",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return work(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func work(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", zap.Error(err))
		return err
	}
	defer app.close()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Interview.ExpirySweep, func() {
		if _, err := app.lifecycle.ExpireStale(ctx); err != nil {
			logger.Error("expiry sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule expiry sweep %q: %w", cfg.Interview.ExpirySweep, err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	logger.Info("worker running", zap.String("expiry_sweep", cfg.Interview.ExpirySweep))
	if err := app.pipeline.Run(ctx, app.rmq); err != nil {
		logger.Error("scoring consumer stopped", zap.Error(err))
		return err
	}
	logger.Info("worker stopped")
	return nil
}
