package httpapi

import (
	"log/slog"
	"net/http"
)

// NewRouter assembles the full HTTP surface: system routes, the public
// fixture read endpoint, and the admin-keyed automation endpoints, wrapped
// in the shared middleware chain.
func NewRouter(handler *Handler, logger *slog.Logger, corsAllowedOrigins []string, adminAPIKey string) http.Handler {
	mux := http.NewServeMux()

	registerSystemRoutes(mux, handler)
	registerPublicRoutes(mux, handler)
	registerAdminRoutes(mux, handler, adminAPIKey)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeInternalError(r.Context(), w)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
