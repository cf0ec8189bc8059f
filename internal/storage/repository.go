package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

// Repository mirrors the ledger engine's collections into a local
// SQLite database. It implements ledger.Store.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveTransaction implements ledger.Store.
func (r *Repository) SaveTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO transactions (id, day, amount_cents, category, note) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Date.String(), t.Amount.Cents, t.Category, t.Note)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// DeleteTransaction implements ledger.Store.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// DeleteAllTransactions implements ledger.Store.
func (r *Repository) DeleteAllTransactions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions`)
	if err != nil {
		return fmt.Errorf("delete all transactions: %w", err)
	}
	return nil
}

// SaveCategory implements ledger.Store.
func (r *Repository) SaveCategory(ctx context.Context, name string, position int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name, position) VALUES (?, ?)`, name, position)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole database content in a single transaction,
// as applied by an import.
func (r *Repository) ReplaceAll(ctx context.Context, transactions []core.Transaction, categories []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	// Insert in reverse so rowid order reflects most-recent-first on load.
	for i := len(transactions) - 1; i >= 0; i-- {
		t := transactions[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, day, amount_cents, category, note) VALUES (?, ?, ?, ?, ?)`,
			t.ID, t.Date.String(), t.Amount.Cents, t.Category, t.Note); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	for i, name := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, position) VALUES (?, ?)`, name, i); err != nil {
			return fmt.Errorf("insert category %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadTransactions implements ledger.Store. Rows that no longer parse
// as valid transactions are skipped with a warning; the rest load fine.
func (r *Repository) LoadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, day, amount_cents, category, note FROM transactions ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			id, day, category, note string
			cents                   int64
		)
		if err := rows.Scan(&id, &day, &cents, &category, &note); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(day)
		if err != nil {
			slog.WarnContext(ctx, "Skipping stored transaction with bad date", "id", id, "day", day)
			continue
		}
		t := core.Transaction{ID: id, Date: d, Amount: core.Money{Cents: cents}, Category: category, Note: note}
		if err := t.Validate(); err != nil {
			slog.WarnContext(ctx, "Skipping invalid stored transaction", "id", id, "error", err)
			continue
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}

// LoadCategories implements ledger.Store.
func (r *Repository) LoadCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
