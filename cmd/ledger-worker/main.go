package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitRepository(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	backupWorker := worker.NewBackupWorker(repo, cfg.BackupDir)

	// A broker is optional: without one the worker still writes periodic
	// snapshots, it just cannot react to individual changes.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("Consuming change events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("No AMQP_URL configured, running on the periodic schedule only")
	}

	ctx := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Take one snapshot at startup so a fresh deployment has a backup
	// before the first interval elapses.
	if err := backupWorker.WriteSnapshot(ctx); err != nil {
		logger.Error("Startup snapshot failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return backupWorker.Run(gctx, cfg.BackupInterval)
	})

	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.ConsumeLedgerChanged(gctx, backupWorker.HandleChange)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
