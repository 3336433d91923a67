package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/holdwatch/internal/api/handlers"
	"github.com/wonny/holdwatch/pkg/logger"
)

// Handlers groups every endpoint of the router
type Handlers struct {
	Health      *handlers.HealthHandler
	History     *handlers.HistoryHandler
	Attribution *handlers.AttributionHandler
	Jobs        *handlers.JobsHandler
	Memos       *handlers.MemosHandler
	Alerts      http.Handler // websocket endpoint, may be nil
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.Health.Check).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// History endpoints
	api.HandleFunc("/history", h.History.ListDates).Methods("GET")
	api.HandleFunc("/history/{date}", h.History.GetSnapshot).Methods("GET")

	// Attribution endpoints
	api.HandleFunc("/attribution/latest", h.Attribution.GetLatest).Methods("GET")

	// Memo endpoints
	api.HandleFunc("/memos", h.Memos.ListMemos).Methods("GET")

	// Scheduler endpoints
	api.HandleFunc("/jobs", h.Jobs.GetStats).Methods("GET")

	// Alert stream
	if h.Alerts != nil {
		r.Handle("/ws/alerts", h.Alerts).Methods("GET")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// The websocket upgrade needs the original writer's Hijacker
			if r.URL.Path == "/ws/alerts" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
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
