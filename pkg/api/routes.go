package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

var submissionsThrottled = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bisbm_api_submissions_throttled_total",
	Help: "Job submissions rejected by the rate limiter",
})

// RouterOptions configures the middleware around the API routes
type RouterOptions struct {
	AllowedOrigins []string
	SubmitRate     float64 // job submissions per second, 0 for no limit
	SubmitBurst    int
}

// SetupRoutes registers the REST API under /api/v1 and the Prometheus
// scrape endpoint at /metrics
func SetupRoutes(router *mux.Router, handlers *Handlers, opts RouterOptions) {
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	api.HandleFunc("/formats", handlers.ListFormats).Methods("GET")

	// Job management endpoints
	limit := RateLimitMiddleware(rate.Limit(opts.SubmitRate), opts.SubmitBurst)
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("", handlers.ListJobs).Methods("GET")
	jobs.Handle("", limit(http.HandlerFunc(handlers.SubmitJob))).Methods("POST")
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}", handlers.CancelJob).Methods("DELETE")
	jobs.HandleFunc("/{jobId}/result", handlers.GetJobResult).Methods("GET")
}

// NewRouter wires the routes, the middleware stack and CORS handling
func NewRouter(handlers *Handlers, opts RouterOptions) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers, opts)

	router.Use(LoggingMiddleware)
	router.Use(RecoveryMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}
