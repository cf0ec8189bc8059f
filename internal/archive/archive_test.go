package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

func TestRoundTrip(t *testing.T) {
	e := ledger.New(nil, nil)
	for _, in := range []struct{ date, amount, cat, note string }{
		{"2025-09-01", "100", "Food", "groceries"},
		{"2025-09-02", "50", "Food", ""},
		{"2025-09-02", "20", "Transport", "bus"},
	} {
		if _, err := e.Add(context.Background(), in.date, in.amount, in.cat, in.note); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	e.AddCategory(context.Background(), "Travel")

	txs, cats := e.Snapshot()
	data, err := Export(txs, cats)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	gotTxs, gotCats, err := Import(data)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(gotTxs) != len(txs) {
		t.Fatalf("expected %d transactions, got %d", len(txs), len(gotTxs))
	}
	for i := range txs {
		if gotTxs[i] != txs[i] {
			t.Fatalf("transaction %d: expected %+v, got %+v", i, txs[i], gotTxs[i])
		}
	}
	if len(gotCats) != len(cats) {
		t.Fatalf("expected %d categories, got %d", len(cats), len(gotCats))
	}
	for i := range cats {
		if gotCats[i] != cats[i] {
			t.Fatalf("category %d: expected %q, got %q", i, cats[i], gotCats[i])
		}
	}
}

func TestImportAbsentFieldsLeaveCollectionsAlone(t *testing.T) {
	txs, cats, err := Import([]byte(`{"categories": ["Food"]}`))
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if txs != nil {
		t.Fatalf("absent expenses must stay nil")
	}
	if len(cats) != 1 || cats[0] != "Food" {
		t.Fatalf("unexpected categories %v", cats)
	}

	txs, cats, err = Import([]byte(`{"expenses": []}`))
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if txs == nil || len(txs) != 0 {
		t.Fatalf("present empty array must replace with empty collection")
	}
	if cats != nil {
		t.Fatalf("absent categories must stay nil")
	}
}

func TestImportRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `not json at all`},
		{"wrong top-level type", `[1, 2, 3]`},
		{"unknown field", `{"expenses": [], "budget": 100}`},
		{"trailing garbage", `{"expenses": []} {"expenses": []}`},
		{"expense missing id", `{"expenses": [{"date": "2025-09-01", "amount": 10, "category": "Food"}]}`},
		{"bad date", `{"expenses": [{"id": "a", "date": "09/01/2025", "amount": 10, "category": "Food"}]}`},
		{"zero amount", `{"expenses": [{"id": "a", "date": "2025-09-01", "amount": 0, "category": "Food"}]}`},
		{"negative amount", `{"expenses": [{"id": "a", "date": "2025-09-01", "amount": -5, "category": "Food"}]}`},
		{"string amount", `{"expenses": [{"id": "a", "date": "2025-09-01", "amount": "10", "category": "Food"}]}`},
		{"empty category", `{"expenses": [{"id": "a", "date": "2025-09-01", "amount": 10, "category": ""}]}`},
		{"duplicate id", `{"expenses": [
			{"id": "a", "date": "2025-09-01", "amount": 10, "category": "Food"},
			{"id": "a", "date": "2025-09-02", "amount": 20, "category": "Food"}]}`},
		{"empty category name", `{"categories": ["Food", "  "]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Import([]byte(tc.data))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestImportIsAtomic(t *testing.T) {
	// One good record followed by one bad record: nothing is returned.
	data := `{"expenses": [
		{"id": "a", "date": "2025-09-01", "amount": 10, "category": "Food"},
		{"id": "b", "date": "2025-09-02", "amount": "broken", "category": "Food"}]}`
	txs, cats, err := Import([]byte(data))
	if err == nil {
		t.Fatalf("expected error")
	}
	if txs != nil || cats != nil {
		t.Fatalf("failed import must return nothing")
	}
}

func TestExportShape(t *testing.T) {
	tx := core.Transaction{
		ID:       "a",
		Date:     core.NewDate(2025, 9, 1),
		Amount:   core.Money{Cents: 10050},
		Category: "Food",
	}
	data, err := Export([]core.Transaction{tx}, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"expenses"`, `"categories"`, `"2025-09-01"`, `100.50`} {
		if !strings.Contains(s, want) {
			t.Fatalf("export missing %s:\n%s", want, s)
		}
	}
	// Amount is a JSON number, not a quoted string.
	if strings.Contains(s, `"100.50"`) {
		t.Fatalf("amount must serialize as a number:\n%s", s)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 9, 2, 15, 4, 5, 0, time.UTC)
	if got := Filename(now); got != "ledger-export-2025-09-02.json" {
		t.Fatalf("unexpected filename %q", got)
	}
}
