package auth

import (
	"net/http"
	"strings"

	"GraphQueryAPI/internal/logger"
)

// Middleware проверяет Bearer-токен и кладёт claims в контекст запроса.
func Middleware(v *JWTValidator, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			logger.Warn("auth_missing_token", map[string]any{"path": r.URL.Path})
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}

		claims, err := v.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			logger.Warn("auth_invalid_token", map[string]any{
				"path":  r.URL.Path,
				"error": err.Error(),
			})
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}
