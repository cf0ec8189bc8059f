// Package ledger implements the expense ledger engine: two owned
// collections (transactions and categories) plus the mutation and query
// operations over them. Presentation and transport layers call into the
// engine and never reach the collections directly.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// DefaultCategories seeds a fresh ledger. The set only ever grows;
// nothing in the engine removes a category.
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Housing",
	"Utilities",
	"Health",
	"Entertainment",
	"Shopping",
	"Other",
}

// Store is the optional persistence hook. Every mutation is mirrored to
// the store; a failing store never fails the mutation (the engine keeps
// operating in-memory only).
type Store interface {
	SaveTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	DeleteAllTransactions(ctx context.Context) error
	SaveCategory(ctx context.Context, name string, position int) error
	ReplaceAll(ctx context.Context, transactions []core.Transaction, categories []string) error
	LoadTransactions(ctx context.Context) ([]core.Transaction, error)
	LoadCategories(ctx context.Context) ([]string, error)
}

// Notifier receives fire-and-forget change events after each mutation.
type Notifier interface {
	NotifyChanged(ctx context.Context, op, id string)
}

// Engine owns the transaction and category collections.
type Engine struct {
	mu           sync.Mutex
	transactions []core.Transaction // most-recent-first
	categories   []string           // ordered, unique, append-only
	store        Store              // optional
	notifier     Notifier           // optional
}

// New creates an engine seeded with the default categories.
// Both store and notifier may be nil.
func New(store Store, notifier Notifier) *Engine {
	return &Engine{
		categories: append([]string(nil), DefaultCategories...),
		store:      store,
		notifier:   notifier,
	}
}

// LoadFromStore replaces the in-memory state with whatever the store
// holds. Malformed or unreadable stored data is logged and ignored,
// leaving the seeded defaults in place.
func (e *Engine) LoadFromStore(ctx context.Context) {
	if e.store == nil {
		return
	}
	txs, err := e.store.LoadTransactions(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load transactions, starting empty", "error", err)
	}
	cats, err := e.store.LoadCategories(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load categories, keeping defaults", "error", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if txs != nil {
		e.transactions = txs
	}
	if len(cats) > 0 {
		e.categories = cats
	}
}

// Add validates the raw input, builds a transaction with a fresh
// identifier and prepends it to the collection. The amount string is
// rounded to two decimals; date must be "YYYY-MM-DD". On validation
// failure nothing is recorded and a core sentinel is returned.
func (e *Engine) Add(ctx context.Context, date, amount, category, note string) (core.Transaction, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	if strings.TrimSpace(category) == "" {
		return core.Transaction{}, core.ErrEmptyCategory
	}

	t := core.Transaction{
		ID:       uuid.NewString(),
		Date:     d,
		Amount:   core.Money{Cents: cents},
		Category: strings.TrimSpace(category),
		Note:     strings.TrimSpace(note),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	e.mu.Lock()
	e.transactions = append([]core.Transaction{t}, e.transactions...)
	e.mu.Unlock()

	e.persist(ctx, "save transaction", func(s Store) error {
		return s.SaveTransaction(ctx, t)
	})
	e.notify(ctx, "add", t.ID)
	return t, nil
}

// Remove deletes the transaction with the given identifier.
// Removing an unknown identifier is a no-op.
func (e *Engine) Remove(ctx context.Context, id string) {
	e.mu.Lock()
	found := false
	for i, t := range e.transactions {
		if t.ID == id {
			e.transactions = append(e.transactions[:i], e.transactions[i+1:]...)
			found = true
			break
		}
	}
	e.mu.Unlock()

	if !found {
		return
	}
	e.persist(ctx, "delete transaction", func(s Store) error {
		return s.DeleteTransaction(ctx, id)
	})
	e.notify(ctx, "remove", id)
}

// Clear empties the transaction collection. Callers are expected to
// have obtained explicit confirmation; there is no undo.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	e.transactions = nil
	e.mu.Unlock()

	e.persist(ctx, "clear transactions", func(s Store) error {
		return s.DeleteAllTransactions(ctx)
	})
	e.notify(ctx, "clear", "")
}

// AddCategory appends a category. Empty names (after trimming) and
// exact case-sensitive duplicates are no-ops.
func (e *Engine) AddCategory(ctx context.Context, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	e.mu.Lock()
	for _, c := range e.categories {
		if c == name {
			e.mu.Unlock()
			return
		}
	}
	e.categories = append(e.categories, name)
	position := len(e.categories) - 1
	e.mu.Unlock()

	e.persist(ctx, "save category", func(s Store) error {
		return s.SaveCategory(ctx, name, position)
	})
	e.notify(ctx, "add-category", name)
}

// Categories returns a copy of the ordered category list.
func (e *Engine) Categories() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.categories...)
}

// Get returns the transaction with the given identifier, if present.
func (e *Engine) Get(id string) (core.Transaction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.transactions {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// Len returns the number of recorded transactions.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.transactions)
}

// Snapshot returns copies of both collections for export.
func (e *Engine) Snapshot() ([]core.Transaction, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	txs := append([]core.Transaction(nil), e.transactions...)
	cats := append([]string(nil), e.categories...)
	return txs, cats
}

// ReplaceAll swaps in fully validated collections, as applied by a
// successful import. A nil slice leaves the matching collection as is.
// The whole replacement is rejected on the first invalid transaction or
// duplicate identifier; existing state is untouched on error.
func (e *Engine) ReplaceAll(ctx context.Context, transactions []core.Transaction, categories []string) error {
	seen := make(map[string]struct{}, len(transactions))
	for _, t := range transactions {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := seen[t.ID]; dup {
			return errors.New("duplicate transaction id: " + t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	if categories != nil {
		categories = dedupe(categories)
	}

	e.mu.Lock()
	if transactions != nil {
		e.transactions = append([]core.Transaction(nil), transactions...)
	}
	if categories != nil {
		e.categories = categories
	}
	txs := append([]core.Transaction(nil), e.transactions...)
	cats := append([]string(nil), e.categories...)
	e.mu.Unlock()

	e.persist(ctx, "replace all", func(s Store) error {
		return s.ReplaceAll(ctx, txs, cats)
	})
	e.notify(ctx, "import", "")
	return nil
}

// persist mirrors a mutation to the store. Storage failures are logged
// and swallowed so the engine keeps serving from memory.
func (e *Engine) persist(ctx context.Context, op string, fn func(Store) error) {
	if e.store == nil {
		return
	}
	if err := fn(e.store); err != nil {
		slog.WarnContext(ctx, "Storage write failed, continuing in-memory", "op", op, "error", err)
	}
}

func (e *Engine) notify(ctx context.Context, op, id string) {
	if e.notifier == nil {
		return
	}
	e.notifier.NotifyChanged(ctx, op, id)
}

// IsValidation reports whether err is a rejected-input error from Add
// or ReplaceAll, as opposed to an internal failure.
func IsValidation(err error) bool {
	return errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrEmptyID)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
