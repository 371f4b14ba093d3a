package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"procsup/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *supervisor.Supervisor satisfies it.
type Service interface {
	Status() types.StatusResponse
	Snapshot() []types.ProcessInfo
	TerminateAll(sig os.Signal) int
}

// NewMux builds the status router:
//
//	GET  /healthz               liveness of procsup itself
//	GET  /status                live-set summary
//	GET  /processes             live children
//	POST /processes/terminate   send the graceful signal to every child
//	GET  /metrics               Prometheus
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/processes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ProcessesResponse{Processes: svc.Snapshot()})
	})

	r.Post("/processes/terminate", func(w http.ResponseWriter, r *http.Request) {
		if svc.Status().Closed {
			writeJSONError(w, http.StatusServiceUnavailable, "supervisor closed")
			return
		}
		n := svc.TerminateAll(nil)
		if zlog != nil {
			z := zlog.Info().Int("signalled", n)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("terminate requested")
		}
		writeJSON(w, http.StatusAccepted, types.TerminateResponse{Signalled: n})
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// NewServer wraps the mux in an http.Server with conservative timeouts.
func NewServer(addr string, svc Service) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewMux(svc),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Warn().Err(err).Msg("failed to encode response")
	}
}

// writeJSONError answers with types.ErrorResponse; Code repeats the status.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}
