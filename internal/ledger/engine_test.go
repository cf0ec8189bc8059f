package ledger

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
)

func TestAddGeneratesIDAndRounds(t *testing.T) {
	e := New(nil, nil)
	tx, err := e.Add(context.Background(), "2025-09-01", "100.005", "Food", "groceries")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if tx.ID == "" {
		t.Fatalf("expected generated id")
	}
	if tx.Amount.Cents != 10001 { // half-up on the third decimal
		t.Fatalf("expected 10001 cents, got %d", tx.Amount.Cents)
	}
	got, ok := e.Get(tx.ID)
	if !ok {
		t.Fatalf("expected transaction retrievable by id")
	}
	if got != tx {
		t.Fatalf("expected %+v, got %+v", tx, got)
	}
}

func TestAddPrependsMostRecentFirst(t *testing.T) {
	e := New(nil, nil)
	first, _ := e.Add(context.Background(), "2025-09-01", "1", "Food", "")
	second, _ := e.Add(context.Background(), "2025-09-02", "2", "Food", "")

	view := e.Query(Filter{}, Sort{})
	if len(view) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(view))
	}
	if view[0].ID != second.ID || view[1].ID != first.ID {
		t.Fatalf("expected most-recent-first order")
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name                         string
		date, amount, category, note string
	}{
		{"empty date", "", "10", "Food", ""},
		{"unparseable date", "yesterday", "10", "Food", ""},
		{"zero amount", "2025-09-01", "0", "Food", ""},
		{"negative amount", "2025-09-01", "-5", "Food", ""},
		{"non-numeric amount", "2025-09-01", "ten", "Food", ""},
		{"empty category", "2025-09-01", "10", "", ""},
		{"blank category", "2025-09-01", "10", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New(nil, nil)
			_, err := e.Add(context.Background(), tc.date, tc.amount, tc.category, tc.note)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if e.Len() != 0 {
				t.Fatalf("collection must stay unchanged on rejected add")
			}
		})
	}
}

func TestRemove(t *testing.T) {
	e := New(nil, nil)
	tx, _ := e.Add(context.Background(), "2025-09-01", "10", "Food", "")
	keep, _ := e.Add(context.Background(), "2025-09-02", "20", "Transport", "")

	e.Remove(context.Background(), tx.ID)
	for _, got := range e.Query(Filter{}, Sort{}) {
		if got.ID == tx.ID {
			t.Fatalf("removed transaction still present")
		}
	}
	if _, ok := e.Get(keep.ID); !ok {
		t.Fatalf("unrelated transaction went missing")
	}

	// Unknown id is a no-op.
	e.Remove(context.Background(), "no-such-id")
	if e.Len() != 1 {
		t.Fatalf("expected 1 transaction, got %d", e.Len())
	}
}

func TestClear(t *testing.T) {
	e := New(nil, nil)
	_, _ = e.Add(context.Background(), "2025-09-01", "10", "Food", "")
	_, _ = e.Add(context.Background(), "2025-09-02", "20", "Food", "")
	e.Clear(context.Background())
	if e.Len() != 0 {
		t.Fatalf("expected empty collection after clear")
	}
	if len(e.Categories()) == 0 {
		t.Fatalf("clear must not touch categories")
	}
}

func TestAddCategory(t *testing.T) {
	e := New(nil, nil)
	base := e.Categories()

	e.AddCategory(context.Background(), "  Food  ") // already a default
	if got := e.Categories(); len(got) != len(base) {
		t.Fatalf("duplicate must not change length: %d vs %d", len(got), len(base))
	}
	for i, c := range e.Categories() {
		if c != base[i] {
			t.Fatalf("duplicate must not change order at %d: %q vs %q", i, c, base[i])
		}
	}

	e.AddCategory(context.Background(), "")
	e.AddCategory(context.Background(), "   ")
	if len(e.Categories()) != len(base) {
		t.Fatalf("empty names must be no-ops")
	}

	e.AddCategory(context.Background(), "Travel")
	got := e.Categories()
	if len(got) != len(base)+1 || got[len(got)-1] != "Travel" {
		t.Fatalf("expected Travel appended, got %v", got)
	}

	// Case-sensitive exact match: a different casing is a new category.
	e.AddCategory(context.Background(), "travel")
	if len(e.Categories()) != len(base)+2 {
		t.Fatalf("lowercase variant expected to append")
	}
}

func TestDefaultCategoriesSeed(t *testing.T) {
	e := New(nil, nil)
	if got := e.Categories(); len(got) != 8 {
		t.Fatalf("expected 8 default categories, got %d", len(got))
	}
}

// failingStore rejects every write so we can verify mutations survive
// storage failures.
type failingStore struct{}

func (failingStore) SaveTransaction(context.Context, core.Transaction) error {
	return errors.New("disk full")
}
func (failingStore) DeleteTransaction(context.Context, string) error { return errors.New("disk full") }
func (failingStore) DeleteAllTransactions(context.Context) error     { return errors.New("disk full") }
func (failingStore) SaveCategory(context.Context, string, int) error { return errors.New("disk full") }
func (failingStore) ReplaceAll(context.Context, []core.Transaction, []string) error {
	return errors.New("disk full")
}
func (failingStore) LoadTransactions(context.Context) ([]core.Transaction, error) {
	return nil, errors.New("corrupt")
}
func (failingStore) LoadCategories(context.Context) ([]string, error) {
	return nil, errors.New("corrupt")
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	e := New(failingStore{}, nil)
	e.LoadFromStore(context.Background())
	if len(e.Categories()) != len(DefaultCategories) {
		t.Fatalf("unreadable store must leave defaults in place")
	}

	tx, err := e.Add(context.Background(), "2025-09-01", "10", "Food", "")
	if err != nil {
		t.Fatalf("mutation must not fail on storage error: %v", err)
	}
	if _, ok := e.Get(tx.ID); !ok {
		t.Fatalf("engine must keep serving from memory")
	}
	e.Remove(context.Background(), tx.ID)
	if e.Len() != 0 {
		t.Fatalf("remove must apply in-memory despite storage error")
	}
}

func TestReplaceAll(t *testing.T) {
	e := New(nil, nil)
	_, _ = e.Add(context.Background(), "2025-01-01", "5", "Food", "")

	imported := []core.Transaction{
		{ID: "a", Date: core.NewDate(2025, 9, 1), Amount: core.Money{Cents: 10000}, Category: "Food"},
		{ID: "b", Date: core.NewDate(2025, 9, 2), Amount: core.Money{Cents: 5000}, Category: "Food"},
	}
	if err := e.ReplaceAll(context.Background(), imported, []string{"Food", "Transport"}); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Len() != 2 {
		t.Fatalf("expected 2 transactions, got %d", e.Len())
	}
	if got := e.Categories(); len(got) != 2 || got[0] != "Food" || got[1] != "Transport" {
		t.Fatalf("unexpected categories %v", got)
	}
}

func TestReplaceAllRejectsAtomically(t *testing.T) {
	e := New(nil, nil)
	_, _ = e.Add(context.Background(), "2025-01-01", "5", "Food", "")
	before := e.Len()

	bad := []core.Transaction{
		{ID: "a", Date: core.NewDate(2025, 9, 1), Amount: core.Money{Cents: 100}, Category: "Food"},
		{ID: "a", Date: core.NewDate(2025, 9, 2), Amount: core.Money{Cents: 200}, Category: "Food"},
	}
	if err := e.ReplaceAll(context.Background(), bad, nil); err == nil {
		t.Fatalf("expected duplicate id rejection")
	}
	invalid := []core.Transaction{
		{ID: "x", Date: core.NewDate(2025, 9, 1), Amount: core.Money{Cents: 0}, Category: "Food"},
	}
	if err := e.ReplaceAll(context.Background(), invalid, nil); err == nil {
		t.Fatalf("expected invalid amount rejection")
	}
	if e.Len() != before {
		t.Fatalf("rejected import must leave state untouched")
	}
}
