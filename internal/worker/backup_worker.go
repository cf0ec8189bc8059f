// Package worker implements the snapshot backup worker: it consumes
// ledger change events and writes a date-stamped JSON export of the
// current database state to a backup directory.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/archive"
	"ledger/internal/storage"
)

// debounceWindow collapses bursts of change events into one snapshot.
const debounceWindow = 10 * time.Second

// BackupWorker reads ledger state from storage and writes export
// snapshots. Snapshot writes are idempotent; consuming the same change
// event twice is harmless.
type BackupWorker struct {
	repo *storage.Repository
	dir  string
	now  func() time.Time

	mu           sync.Mutex
	lastSnapshot time.Time
}

func NewBackupWorker(repo *storage.Repository, dir string) *BackupWorker {
	return &BackupWorker{
		repo: repo,
		dir:  dir,
		now:  time.Now,
	}
}

// HandleChange processes one change event from the queue. Events that
// arrive within the debounce window of the last snapshot are dropped;
// the periodic loop picks up whatever they would have captured.
func (w *BackupWorker) HandleChange(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.mu.Lock()
	if w.now().Sub(w.lastSnapshot) < debounceWindow {
		w.mu.Unlock()
		slog.DebugContext(ctx, "Skipping snapshot, too soon after last", "op", msg.Op, "id", msg.ID)
		return nil
	}
	w.mu.Unlock()

	slog.InfoContext(ctx, "Processing ledger change", "op", msg.Op, "id", msg.ID)
	return w.WriteSnapshot(ctx)
}

// WriteSnapshot exports the current database state to the backup
// directory. The file is written to a temp name then renamed, so a
// crash never leaves a truncated snapshot behind.
func (w *BackupWorker) WriteSnapshot(ctx context.Context) error {
	transactions, err := w.repo.LoadTransactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	categories, err := w.repo.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	data, err := archive.Export(transactions, categories)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	path := filepath.Join(w.dir, archive.Filename(w.now()))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize snapshot: %w", err)
	}

	w.mu.Lock()
	w.lastSnapshot = w.now()
	w.mu.Unlock()

	slog.InfoContext(ctx, "Snapshot written",
		"path", path,
		"transactions", len(transactions),
		"categories", len(categories))
	return nil
}

// Run writes snapshots on a fixed interval until ctx is done. It backs
// the event-driven path for deployments without a broker.
func (w *BackupWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.WriteSnapshot(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic snapshot failed", "error", err)
			}
		}
	}
}
