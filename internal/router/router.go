package router

import (
	"net/http"

	"GraphQueryAPI/internal/auth"
	"GraphQueryAPI/internal/config"
	"GraphQueryAPI/internal/handler"
	"GraphQueryAPI/internal/logger"
)

// InitRoutes регистрирует маршруты API на http.DefaultServeMux.
// Цепочка middleware: CORS -> auth (опционально) -> логирование -> handler.
func InitRoutes(cfg *config.Config) error {
	guard := func(h http.HandlerFunc) (http.HandlerFunc, error) {
		if !cfg.Auth.Enabled {
			return h, nil
		}
		validator, err := auth.NewJWTValidator(cfg.Auth.JWT)
		if err != nil {
			return nil, err
		}
		return auth.Middleware(validator, h), nil
	}

	routes := map[string]http.HandlerFunc{
		"/api/query": handler.QueryHandler,
		"/api/node":  handler.NodeHandler,
		"/api/count": handler.CountHandler,
	}
	for path, h := range routes {
		protected, err := guard(h)
		if err != nil {
			return err
		}
		http.HandleFunc(path, withCORS(cfg.CORS.AllowOrigin, cfg.CORS.AllowCredentials, withLogging(protected)))
	}
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		fields := map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": sw.status,
		}
		switch {
		case sw.status >= 500:
			logger.Error("response", fields)
		case sw.status >= 400:
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	}
}
