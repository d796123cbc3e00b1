package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"GraphQueryAPI/internal/logger"
	"GraphQueryAPI/internal/resolver"
)

// QueryHandler resolves one connection request: filter, order, window.
func QueryHandler(w http.ResponseWriter, r *http.Request) {
	// Ограничим только POST-запросы
	if r.Method != http.MethodPost {
		logger.Warn("method_not_allowed", map[string]any{
			"endpoint": "/api/query",
			"method":   r.Method,
		})
		http.Error(w, "Only POST allowed", http.StatusMethodNotAllowed)
		return
	}

	var req resolver.QueryRequest

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Warn("read_body_failed", map[string]any{
			"endpoint": "/api/query",
			"error":    err.Error(),
		})
		http.Error(w, "Failed to read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		logger.Warn("invalid_json", map[string]any{
			"endpoint": "/api/query",
			"error":    err.Error(),
		})
		http.Error(w, "Invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	logger.Debug("request", map[string]any{
		"endpoint": "/api/query",
		"payload":  json.RawMessage(body),
	})

	conn, err := resolver.Resolve(r.Context(), req)
	if err != nil {
		status := statusForError(err)
		logLevel(status)("resolve_failed", map[string]any{
			"endpoint": "/api/query",
			"type":     req.Type,
			"error":    err.Error(),
		})
		http.Error(w, "Failed to resolve connection: "+err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(conn); err != nil {
		logger.Error("write_response_failed", map[string]any{
			"endpoint": "/api/query",
			"error":    err.Error(),
		})
		http.Error(w, "Failed to write response: "+err.Error(), http.StatusInternalServerError)
	}
}

func logLevel(status int) func(string, map[string]any) {
	if status >= 500 {
		return logger.Error
	}
	return logger.Warn
}
