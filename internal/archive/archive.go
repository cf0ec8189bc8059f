// Package archive implements the export/import file format: a single
// JSON object {"expenses": [...], "categories": [...]}.
//
// Import is strict and atomic. Unknown fields, malformed records and
// duplicate identifiers reject the whole file; nothing is applied on
// error. A field that is absent leaves the matching collection alone,
// a present array (even empty) fully replaces it.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger/internal/core"
)

// ErrMalformed marks an unusable import file. Wrapped errors carry the
// specific reason for the user-visible message.
var ErrMalformed = errors.New("malformed import file")

type transactionRecord struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Amount   json.Number `json:"amount"`
	Category string      `json:"category"`
	Note     string      `json:"note,omitempty"`
}

type document struct {
	Expenses   []transactionRecord `json:"expenses"`
	Categories []string            `json:"categories"`
}

// Export serializes both collections into the export format.
func Export(transactions []core.Transaction, categories []string) ([]byte, error) {
	doc := document{
		Expenses:   make([]transactionRecord, 0, len(transactions)),
		Categories: categories,
	}
	if doc.Categories == nil {
		doc.Categories = []string{}
	}
	for _, t := range transactions {
		doc.Expenses = append(doc.Expenses, transactionRecord{
			ID:       t.ID,
			Date:     t.Date.String(),
			Amount:   json.Number(t.Amount.Decimal()),
			Category: t.Category,
			Note:     t.Note,
		})
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return out, nil
}

// Filename returns the date-stamped download name for an export taken
// at the given time.
func Filename(now time.Time) string {
	return "ledger-export-" + now.Format("2006-01-02") + ".json"
}

// Import parses and validates an export file. A nil slice in the result
// means the field was absent (or null) and the matching collection must
// be left as is; a non-nil slice fully replaces it.
func Import(data []byte) ([]core.Transaction, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	// Anything after the document object is garbage.
	if dec.More() {
		return nil, nil, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}

	var transactions []core.Transaction
	if doc.Expenses != nil {
		transactions = make([]core.Transaction, 0, len(doc.Expenses))
		seen := make(map[string]struct{}, len(doc.Expenses))
		for i, rec := range doc.Expenses {
			t, err := rec.toTransaction()
			if err != nil {
				return nil, nil, fmt.Errorf("%w: expense %d: %v", ErrMalformed, i, err)
			}
			if _, dup := seen[t.ID]; dup {
				return nil, nil, fmt.Errorf("%w: expense %d: duplicate id %q", ErrMalformed, i, t.ID)
			}
			seen[t.ID] = struct{}{}
			transactions = append(transactions, t)
		}
	}

	var categories []string
	if doc.Categories != nil {
		categories = make([]string, 0, len(doc.Categories))
		for i, c := range doc.Categories {
			c = strings.TrimSpace(c)
			if c == "" {
				return nil, nil, fmt.Errorf("%w: category %d is empty", ErrMalformed, i)
			}
			categories = append(categories, c)
		}
	}

	return transactions, categories, nil
}

func (r transactionRecord) toTransaction() (core.Transaction, error) {
	if strings.TrimSpace(r.ID) == "" {
		return core.Transaction{}, core.ErrEmptyID
	}
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", r.Date, err)
	}
	cents, err := core.ParseDecimalToCents(r.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", r.Amount, err)
	}
	t := core.Transaction{
		ID:       strings.TrimSpace(r.ID),
		Date:     d,
		Amount:   core.Money{Cents: cents},
		Category: strings.TrimSpace(r.Category),
		Note:     r.Note,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
