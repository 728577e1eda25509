package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jose/sera/backend/internal/api/handlers"
	"github.com/jose/sera/backend/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
// SSOT: all routing lives in this function.
func NewRouter(
	snapshotHandler *handlers.SnapshotHandler,
	readinessHandler *handlers.ReadinessHandler,
	wearableHandler *handlers.WearableHandler,
	bodyHandler *handlers.BodyMetricsHandler,
	oauthHandler *handlers.OAuthHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Snapshot endpoints
	api.HandleFunc("/snapshots/daily/{date}", snapshotHandler.GetDaily).Methods("GET")
	api.HandleFunc("/snapshots/latest", snapshotHandler.GetLatest).Methods("GET")
	api.HandleFunc("/snapshots/range", snapshotHandler.GetRange).Methods("GET")

	// Readiness endpoints
	api.HandleFunc("/readiness/latest", readinessHandler.GetLatest).Methods("GET")
	api.HandleFunc("/readiness/{date}", readinessHandler.GetByDate).Methods("GET")

	// Wearable endpoints
	api.HandleFunc("/wearable/ingest", wearableHandler.Ingest).Methods("POST")
	api.HandleFunc("/wearable/import", wearableHandler.Import).Methods("POST")
	api.HandleFunc("/wearable/daily/{date}", wearableHandler.GetDaily).Methods("GET")

	// Body metrics endpoints
	api.HandleFunc("/body/ingest", bodyHandler.Ingest).Methods("POST")
	api.HandleFunc("/body/ingest/batch", bodyHandler.IngestBatch).Methods("POST")
	api.HandleFunc("/body/daily/{date}", bodyHandler.GetDaily).Methods("GET")
	api.HandleFunc("/body/dates", bodyHandler.ListDates).Methods("GET")

	// WHOOP OAuth endpoints
	api.HandleFunc("/whoop/auth-url", oauthHandler.GetAuthURL).Methods("GET")
	api.HandleFunc("/whoop/callback", oauthHandler.Callback).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "sera-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
