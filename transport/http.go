package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/toolgate/health"
	"github.com/jonwraymond/toolgate/observe"
	"github.com/jonwraymond/toolgate/resilience"
	"github.com/jonwraymond/toolgate/rpc"
)

// maxBodyBytes bounds a single JSON-RPC ingress body on the HTTP
// transports.
const maxBodyBytes = 4 << 20

// HTTPConfig configures the sse and streamable-http transports.
type HTTPConfig struct {
	// Addr is the host:port to bind. Required.
	Addr string

	// Handler answers each decoded request. Required.
	Handler Handler

	// Health backs /readyz and /health. When nil only the liveness
	// endpoint is mounted.
	Health *health.Aggregator

	// RequestTimeout bounds JSON-RPC ingress handling. It does not
	// apply to event streams, which live until the client leaves.
	// Default: 60s.
	RequestTimeout time.Duration

	// RateLimit, when set, sheds ingress load with 429 responses.
	// Health and metrics endpoints are never limited.
	RateLimit *resilience.RateLimiter

	// ServeMetrics mounts the prometheus registry at /metrics.
	ServeMetrics bool

	// Logger defaults to a no-op.
	Logger observe.Logger
}

func (cfg *HTTPConfig) applyDefaults(kind string) error {
	if cfg.Handler == nil {
		return fmt.Errorf("transport: %s handler is required", kind)
	}
	if cfg.Addr == "" {
		return fmt.Errorf("transport: %s listen address is required", kind)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	return nil
}

// baseRouter builds the router shared by both HTTP transports: request
// id, real ip and panic recovery on everything, health and metrics
// outside the rate limiter. Ingress routes carry the request timeout;
// stream routes stay open until the client leaves, so they are rate
// limited but never time limited.
func baseRouter(cfg HTTPConfig, ingress, streams func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if cfg.Health != nil {
		health.Mount(r, cfg.Health)
	} else {
		r.Get("/healthz", health.LivenessHandler())
	}
	if cfg.ServeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(cfg.RequestTimeout))
		if cfg.RateLimit != nil {
			g.Use(rateLimitMiddleware(cfg.RateLimit))
		}
		ingress(g)
	})

	if streams != nil {
		r.Group(func(g chi.Router) {
			if cfg.RateLimit != nil {
				g.Use(rateLimitMiddleware(cfg.RateLimit))
			}
			streams(g)
		})
	}

	return r
}

func rateLimitMiddleware(limiter *resilience.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// httpServer owns the listen/serve/shutdown lifecycle shared by the
// sse and streamable-http transports.
type httpServer struct {
	kind string
	log  observe.Logger
	srv  *http.Server

	mu        sync.Mutex
	boundAddr string

	stopOnce sync.Once
	stopErr  error
}

func newHTTPServer(kind string, cfg HTTPConfig, router http.Handler) *httpServer {
	return &httpServer{
		kind: kind,
		log:  cfg.Logger,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Addr reports the bound listener address, empty until Serve has bound
// it. With a ":0" configured port this is how callers learn the real one.
func (h *httpServer) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.boundAddr
}

// Router exposes the root HTTP handler, mainly for tests that drive the
// transport through httptest instead of a real listener.
func (h *httpServer) Router() http.Handler {
	return h.srv.Handler
}

func (h *httpServer) serve(ctx context.Context, onStop func()) error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return fmt.Errorf("%s: listening on %s: %w", h.kind, h.srv.Addr, err)
	}
	h.mu.Lock()
	h.boundAddr = ln.Addr().String()
	h.mu.Unlock()

	h.log.Info(ctx, "transport serving",
		observe.Field{Key: "transport", Value: h.kind},
		observe.Field{Key: "addr", Value: h.boundAddr})

	errc := make(chan error, 1)
	go func() { errc <- h.srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return h.shutdown(shutdownCtx, onStop)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: serving: %w", h.kind, err)
	}
}

func (h *httpServer) shutdown(ctx context.Context, onStop func()) error {
	h.stopOnce.Do(func() {
		if onStop != nil {
			onStop()
		}
		h.stopErr = h.srv.Shutdown(ctx)
	})
	return h.stopErr
}

func writeRPCResponse(log observe.Logger, w http.ResponseWriter, status int, resp *rpc.Response) {
	data, err := rpc.Encode(resp)
	if err != nil {
		log.Error(context.Background(), "encoding response",
			observe.Field{Key: "error", Value: err.Error()})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
