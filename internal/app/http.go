package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/philly/arch-blog/reader/internal/platform/logger"
)

// MetricsServer serves /metrics and /health/live. It is nil when no
// METRICS_ADDRESS is configured.
type MetricsServer struct {
	*http.Server
}

// NewMetricsServer creates the metrics endpoint for reg.
func NewMetricsServer(config Config, reg *prometheus.Registry, log logger.Logger) *MetricsServer {
	if config.MetricsAddress == "" {
		return nil
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &MetricsServer{Server: &http.Server{
		Addr:         config.MetricsAddress,
		Handler:      withObservability(r, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
}

// withObservability logs every request at debug level
func withObservability(handler http.Handler, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrr := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		handler.ServeHTTP(wrr, r)

		log.Debug(r.Context(), "HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrr.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
