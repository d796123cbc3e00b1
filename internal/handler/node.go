package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"GraphQueryAPI/internal/logger"
	"GraphQueryAPI/internal/resolver"
)

// NodeHandler выдаёт одну сущность по её глобальному идентификатору.
func NodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST allowed", http.StatusMethodNotAllowed)
		return
	}

	var req resolver.NodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "Field id is required", http.StatusBadRequest)
		return
	}

	item, err := resolver.Node(r.Context(), req)
	if err != nil {
		status := statusForError(err)
		if errors.Is(err, resolver.ErrNotFound) {
			status = http.StatusNotFound
		}
		logLevel(status)("node_failed", map[string]any{
			"endpoint": "/api/node",
			"id":       req.ID,
			"error":    err.Error(),
		})
		http.Error(w, "Failed to resolve node: "+err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(item); err != nil {
		logger.Error("write_response_failed", map[string]any{
			"endpoint": "/api/node",
			"error":    err.Error(),
		})
	}
}
