package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ledger/internal/archive"
	"ledger/internal/ledger"
)

// maxImportBytes bounds the import request body.
const maxImportBytes = 10 << 20 // 10MB

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		writeError(w, r, http.StatusBadRequest, "invalid request format")
		return
	}

	date := strings.TrimSpace(r.Form.Get("date"))
	amount := strings.TrimSpace(r.Form.Get("amount"))
	category := sanitizeInput(r.Form.Get("category"))
	note := sanitizeInput(r.Form.Get("note"))

	t, err := s.engine.Add(r.Context(), date, amount, category, note)
	if err != nil {
		if ledger.IsValidation(err) {
			writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Add transaction failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "could not record transaction")
		return
	}

	s.summaryCache.Purge()
	writeJSON(w, r, http.StatusCreated, toTransactionJSON(t))
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// Removing an unknown id is a no-op by design, so this always succeeds.
	s.engine.Remove(r.Context(), id)
	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	// Clearing is irreversible; the client must confirm explicitly.
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, r, http.StatusBadRequest, "clearing all transactions requires confirm=true")
		return
	}
	s.engine.Clear(r.Context())
	s.summaryCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date filter, expected YYYY-MM-DD")
		return
	}
	view := s.engine.Query(filter, parseSort(r.URL.Query()))

	out := make([]transactionJSON, 0, len(view))
	for _, t := range view {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"categories": s.engine.Categories()})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request format")
		return
	}
	// Empty and duplicate names are no-ops; the response always lists
	// the current set so the client can just re-render.
	s.engine.AddCategory(r.Context(), sanitizeInput(r.Form.Get("name")))
	writeJSON(w, r, http.StatusOK, map[string]any{"categories": s.engine.Categories()})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid date filter, expected YYYY-MM-DD")
		return
	}

	key := summaryCacheKey(filter)
	if cached, found := s.summaryCache.Get(key); found {
		slog.DebugContext(r.Context(), "Summary cache hit", "key", key)
		writeJSON(w, r, http.StatusOK, toSummaryJSON(cached.summary, cached.count))
		return
	}

	view := s.engine.Query(filter, ledger.Sort{})
	summary := ledger.Summarize(view)
	s.summaryCache.Set(key, summaryEntry{summary: summary, count: len(view)})
	writeJSON(w, r, http.StatusOK, toSummaryJSON(summary, len(view)))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	transactions, categories := s.engine.Snapshot()
	data, err := archive.Export(transactions, categories)
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+archive.Filename(time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read import file")
		return
	}
	if len(data) > maxImportBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "import file too large")
		return
	}

	transactions, categories, err := archive.Import(data)
	if err != nil {
		if errors.Is(err, archive.ErrMalformed) {
			slog.WarnContext(r.Context(), "Import rejected", "error", err)
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Import failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "import failed")
		return
	}

	if err := s.engine.ReplaceAll(r.Context(), transactions, categories); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.summaryCache.Purge()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"imported_transactions": len(transactions),
		"imported_categories":   len(categories),
	})
}

func summaryCacheKey(f ledger.Filter) string {
	var b strings.Builder
	if !f.From.IsZero() {
		b.WriteString(f.From.String())
	}
	b.WriteByte('|')
	if !f.To.IsZero() {
		b.WriteString(f.To.String())
	}
	b.WriteByte('|')
	b.WriteString(f.Category)
	return b.String()
}
