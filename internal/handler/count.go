package handler

import (
	"encoding/json"
	"net/http"

	"GraphQueryAPI/internal/resolver"
)

// CountHandler возвращает размер отфильтрованной коллекции без выборки окна.
// Ожидает JSON с полями type, filter, search; отвечает {"count": N}.
func CountHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST allowed", http.StatusMethodNotAllowed)
		return
	}

	var req resolver.CountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	count, err := resolver.Count(r.Context(), req)
	if err != nil {
		status := statusForError(err)
		logLevel(status)("count_failed", map[string]any{
			"endpoint": "/api/count",
			"type":     req.Type,
			"error":    err.Error(),
		})
		http.Error(w, "Failed to count: "+err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]uint64{"count": count})
}
