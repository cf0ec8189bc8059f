package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

// transactionJSON is the wire shape of a transaction. The amount is a
// plain decimal number; display carries the fixed "€12,34" rendering.
type transactionJSON struct {
	ID       string      `json:"id"`
	Date     string      `json:"date"`
	Amount   json.Number `json:"amount"`
	Display  string      `json:"display"`
	Category string      `json:"category"`
	Note     string      `json:"note,omitempty"`
}

type amountJSON struct {
	Amount  json.Number `json:"amount"`
	Display string      `json:"display"`
}

type summaryJSON struct {
	Total      amountJSON        `json:"total"`
	ByCategory []namedAmountJSON `json:"by_category"`
	ByMonth    []monthAmountJSON `json:"by_month"`
	Count      int               `json:"count"`
}

type namedAmountJSON struct {
	Name string `json:"name"`
	amountJSON
}

type monthAmountJSON struct {
	Month string `json:"month"`
	amountJSON
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:       t.ID,
		Date:     t.Date.String(),
		Amount:   json.Number(t.Amount.Decimal()),
		Display:  core.FormatEuros(t.Amount.Cents),
		Category: t.Category,
		Note:     t.Note,
	}
}

func toAmountJSON(m core.Money) amountJSON {
	return amountJSON{
		Amount:  json.Number(m.Decimal()),
		Display: core.FormatEuros(m.Cents),
	}
}

func toSummaryJSON(s core.Summary, count int) summaryJSON {
	out := summaryJSON{
		Total:      toAmountJSON(s.Total),
		ByCategory: make([]namedAmountJSON, 0, len(s.ByCategory)),
		ByMonth:    make([]monthAmountJSON, 0, len(s.ByMonth)),
		Count:      count,
	}
	for _, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, namedAmountJSON{Name: c.Name, amountJSON: toAmountJSON(c.Amount)})
	}
	for _, m := range s.ByMonth {
		out.ByMonth = append(out.ByMonth, monthAmountJSON{Month: m.Month, amountJSON: toAmountJSON(m.Amount)})
	}
	return out
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Response encode failed", "error", err, "url", r.URL.Path)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// parseFilter builds a query filter from request parameters. Bad date
// bounds are reported instead of silently ignored.
func parseFilter(values url.Values) (ledger.Filter, error) {
	var f ledger.Filter
	if v := strings.TrimSpace(values.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return ledger.Filter{}, err
		}
		f.From = d
	}
	if v := strings.TrimSpace(values.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return ledger.Filter{}, err
		}
		f.To = d
	}
	f.Category = strings.TrimSpace(values.Get("category"))
	return f, nil
}

func parseSort(values url.Values) ledger.Sort {
	return ledger.Sort{
		Key:  ledger.ParseSortKey(values.Get("sort")),
		Desc: strings.EqualFold(strings.TrimSpace(values.Get("dir")), "desc"),
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
