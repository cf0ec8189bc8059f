package ledger

import (
	"sort"
	"strings"

	"ledger/internal/core"
)

// SortKey selects the field a query is ordered by.
type SortKey string

const (
	// SortNone keeps the engine's most-recent-first insertion order.
	SortNone     SortKey = ""
	SortDate     SortKey = "date"
	SortAmount   SortKey = "amount"
	SortCategory SortKey = "category"
)

// ParseSortKey maps a raw parameter to a SortKey; unknown values fall
// back to insertion order.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortDate:
		return SortDate
	case SortAmount:
		return SortAmount
	case SortCategory:
		return SortCategory
	default:
		return SortNone
	}
}

// Filter is a conjunction of optional predicates over a transaction
// view. Zero-value fields do not constrain.
type Filter struct {
	From     core.Date // inclusive lower bound on the date
	To       core.Date // inclusive upper bound on the date
	Category string    // exact match
}

func (f Filter) matches(t core.Transaction) bool {
	if !f.From.IsZero() && t.Date.Time.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && t.Date.Time.After(f.To.Time) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// Sort is a (key, direction) pair. Ties keep the input order.
type Sort struct {
	Key  SortKey
	Desc bool
}

// Query returns a new ordered slice of the transactions matching the
// filter. The engine's collection is never mutated.
func (e *Engine) Query(filter Filter, s Sort) []core.Transaction {
	e.mu.Lock()
	out := make([]core.Transaction, 0, len(e.transactions))
	for _, t := range e.transactions {
		if filter.matches(t) {
			out = append(out, t)
		}
	}
	e.mu.Unlock()

	if s.Key == SortNone {
		return out
	}
	less := func(a, b core.Transaction) bool {
		switch s.Key {
		case SortAmount:
			return a.Amount.Cents < b.Amount.Cents
		case SortCategory:
			return a.Category < b.Category
		default:
			return a.Date.Time.Before(b.Date.Time)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if s.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// Total sums the amounts of a transaction view.
func Total(transactions []core.Transaction) core.Money {
	var cents int64
	for _, t := range transactions {
		cents += t.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// SumByCategory groups a view by exact category string. An empty view
// yields an empty map, distinguishable from a zero-sum category.
func SumByCategory(transactions []core.Transaction) map[string]core.Money {
	sums := make(map[string]core.Money, len(transactions))
	for _, t := range transactions {
		m := sums[t.Category]
		m.Cents += t.Amount.Cents
		sums[t.Category] = m
	}
	return sums
}

// SumByMonth groups a view by the date's "YYYY-MM" key, ascending.
func SumByMonth(transactions []core.Transaction) []core.MonthAmount {
	sums := make(map[string]int64, len(transactions))
	for _, t := range transactions {
		sums[t.Date.MonthKey()] += t.Amount.Cents
	}
	out := make([]core.MonthAmount, 0, len(sums))
	for month, cents := range sums {
		out = append(out, core.MonthAmount{Month: month, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Summarize computes all three aggregates over a view. The per-category
// breakdown is ordered by descending amount, name as tiebreak.
func Summarize(transactions []core.Transaction) core.Summary {
	byCat := SumByCategory(transactions)
	cats := make([]core.CategoryAmount, 0, len(byCat))
	for name, amount := range byCat {
		cats = append(cats, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Amount.Cents != cats[j].Amount.Cents {
			return cats[i].Amount.Cents > cats[j].Amount.Cents
		}
		return cats[i].Name < cats[j].Name
	})
	return core.Summary{
		Total:      Total(transactions),
		ByCategory: cats,
		ByMonth:    SumByMonth(transactions),
	}
}
