package main

import (
	"context"
	"flag"
	"os"
	"time"

	"ledger/internal/archive"
	"ledger/internal/cli"
)

// ledger-export writes the current database contents as a portable
// JSON document, to stdout by default or to -out when given.
func main() {
	out := flag.String("out", "", "output file (defaults to stdout)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitRepository(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	transactions, err := repo.LoadTransactions(ctx)
	if err != nil {
		logger.Error("Failed to load transactions", "error", err)
		os.Exit(1)
	}
	categories, err := repo.LoadCategories(ctx)
	if err != nil {
		logger.Error("Failed to load categories", "error", err)
		os.Exit(1)
	}

	data, err := archive.Export(transactions, categories)
	if err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}

	if *out == "" {
		os.Stdout.Write(data)
		os.Stdout.Write([]byte("\n"))
		return
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		logger.Error("Failed to write export file", "error", err, "path", *out)
		os.Exit(1)
	}
	logger.Info("Export written", "path", *out, "transactions", len(transactions), "categories", len(categories))
}
