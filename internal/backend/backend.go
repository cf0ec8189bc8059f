// Package backend wires a ledger engine to its persistence and
// messaging collaborators based on configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/ledger"
	"ledger/internal/storage"
)

// Type selects how the engine is backed.
type Type string

const (
	// Memory keeps everything in-process; nothing survives a restart.
	Memory Type = "memory"
	// SQLite mirrors every mutation to a local database and reloads it
	// at startup.
	SQLite Type = "sqlite"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result holds a ready engine and its optional cleanup.
type Result struct {
	Engine  *ledger.Engine
	Cleanup CleanupFunc
}

// Build creates an engine for the configured backend. For the sqlite
// backend an AMQP notifier is attached when a broker URL is configured;
// a broker that is down only costs change events, never mutations.
func Build(ctx context.Context, cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLite:
		return buildSQLite(ctx, cfg)
	default:
		slog.Info("Initialized memory backend")
		return &Result{Engine: ledger.New(nil, nil)}, nil
	}
}

func buildSQLite(ctx context.Context, cfg *config.Config) (*Result, error) {
	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	var (
		notifier   ledger.Notifier
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			notifier = amqp.NewNotifier(amqpClient)
			slog.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	engine := ledger.New(repo, notifier)
	engine.LoadFromStore(ctx)

	slog.Info("Initialized sqlite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil,
		"transactions", engine.Len())

	cleanup := func() error {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				slog.Warn("AMQP close failed", "error", err)
			}
		}
		return repo.Close()
	}
	return &Result{Engine: engine, Cleanup: cleanup}, nil
}
