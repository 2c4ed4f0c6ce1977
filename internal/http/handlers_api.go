package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// prefixLookupMinDigits is the shortest code that triggers the prefix
// fallback; shorter codes only match exactly.
const prefixLookupMinDigits = 3

type workNameEntry struct {
	WorkName string `json:"work_name"`
	BookName string `json:"book_name"`
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// handleWorkNames resolves a work code to its name/book combinations.
// Exact match wins; codes of at least three digits fall back to a prefix
// scan so a partially typed code still offers candidates.
func (s *Server) handleWorkNames(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("workcd"))
	if !isDigits(code) {
		writeJSONError(w, http.StatusBadRequest, "workcd must be numeric")
		return
	}

	index := s.catalogs.WorkCodes(r.Context())
	entries := index[code]
	if len(entries) == 0 && len(code) >= prefixLookupMinDigits {
		keys := make([]string, 0)
		for key := range index {
			if strings.HasPrefix(key, code) {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			entries = append(entries, index[key]...)
		}
	}

	out := make([]workNameEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, workNameEntry{WorkName: e.WorkName, BookName: e.BookName})
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"worknames": out})
}

// handleUnitPrice returns the unit price for a process name.
func (s *Server) handleUnitPrice(w http.ResponseWriter, r *http.Request) {
	process := strings.TrimSpace(r.URL.Query().Get("workprocess"))
	if process == "" {
		writeJSONError(w, http.StatusBadRequest, "workprocess is required")
		return
	}

	prices := s.catalogs.Processes(r.Context())
	price, ok := prices.Prices[process]
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown process")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"unitprice": price.Float()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "JSON encode failed", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
