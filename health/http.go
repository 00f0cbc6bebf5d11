package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// LivenessHandler answers liveness probes. It only proves the process
// is serving; dependency state is the readiness handler's job.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler answers readiness probes from a full sweep. A
// degraded gateway still reports ready; only unhealthy takes it out of
// rotation.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := agg.OverallStatus(agg.CheckAll(ctx))

		w.Header().Set("Content-Type", "text/plain")
		switch status {
		case StatusUnhealthy:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNHEALTHY"))
		case StatusDegraded:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		}
	}
}

// Report is the JSON body of the detailed health endpoint.
type Report struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckReport `json:"checks,omitempty"`
}

// CheckReport is one checker's slice of a Report.
type CheckReport struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DetailedHandler serves the per-check breakdown as JSON. Unhealthy
// maps to 503 so the endpoint doubles as a probe.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		results := agg.CheckAll(ctx)
		status := agg.OverallStatus(results)

		report := Report{
			Status:    status.String(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    make(map[string]CheckReport, len(results)),
		}
		for name, result := range results {
			check := CheckReport{
				Status:   result.Status.String(),
				Message:  result.Message,
				Duration: result.Duration.String(),
				Details:  result.Details,
			}
			if result.Error != nil {
				check.Error = result.Error.Error()
			}
			report.Checks[name] = check
		}

		w.Header().Set("Content-Type", "application/json")
		if status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(report)
	}
}

// Mount registers the gateway's health endpoints on r: /healthz for
// liveness, /readyz for readiness and /health for the detailed
// breakdown.
func Mount(r chi.Router, agg *Aggregator) {
	r.Get("/healthz", LivenessHandler())
	r.Get("/readyz", ReadinessHandler(agg))
	r.Get("/health", DetailedHandler(agg))
}
