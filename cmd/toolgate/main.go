// Command toolgate serves a tool-invocation gateway: JSON-RPC tools
// behind an auth gate, reachable over stdio, server-sent events, or
// streamable HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/toolgate/auth"
	"github.com/jonwraymond/toolgate/cache"
	"github.com/jonwraymond/toolgate/config"
	"github.com/jonwraymond/toolgate/dispatch"
	"github.com/jonwraymond/toolgate/health"
	"github.com/jonwraymond/toolgate/memstore"
	"github.com/jonwraymond/toolgate/observe"
	"github.com/jonwraymond/toolgate/registry"
	"github.com/jonwraymond/toolgate/resilience"
	"github.com/jonwraymond/toolgate/secret"
	"github.com/jonwraymond/toolgate/tools"
	"github.com/jonwraymond/toolgate/transport"
)

// version is stamped by the build via -ldflags "-X main.version=...".
var version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "toolgate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := config.BindFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx := context.Background()

	obs, err := newObserver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building observer: %w", err)
	}
	log := obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("building instrumentation: %w", err)
	}

	gate, err := newGate(cfg)
	if err != nil {
		return err
	}

	store, err := memstore.Open(cfg.MemoryDBPath)
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}
	defer func() { _ = store.Close() }()

	reg := registry.New()
	if err := tools.RegisterBuiltins(reg, store, nil); err != nil {
		return fmt.Errorf("registering builtin tools: %w", err)
	}
	reg.Freeze()

	d, err := dispatch.New(dispatch.Config{
		Registry:      reg,
		Gate:          gate,
		Middleware:    mw,
		Cache:         cache.NewMiddleware(cache.NewMemoryCache(), nil, cache.DefaultPolicy()),
		Logger:        log,
		ServerName:    "toolgate",
		ServerVersion: version,
	})
	if err != nil {
		return err
	}

	agg := newHealthAggregator(store, gate)

	tr, err := newTransport(cfg, d, agg, log)
	if err != nil {
		return err
	}

	log.Info(ctx, "gateway starting",
		observe.Field{Key: "version", Value: version},
		observe.Field{Key: "transport", Value: cfg.Transport},
		observe.Field{Key: "authentication", Value: cfg.AuthMode},
		observe.Field{Key: "tools", Value: reg.Len()})

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return tr.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := tr.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("draining %s transport: %w", tr.Name(), err)
		}
		return nil
	})
	err = g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if shutErr := obs.Shutdown(flushCtx); shutErr != nil {
		log.Warn(flushCtx, "telemetry shutdown",
			observe.Field{Key: "error", Value: shutErr.Error()})
	}

	if err != nil {
		return err
	}
	log.Info(ctx, "gateway stopped")
	return nil
}

// loadConfig merges defaults, file, environment, and flags, resolves
// secret references, and validates the result. Any failure here is
// fatal; nothing has started yet.
func loadConfig(flags *config.Flags) (config.Config, error) {
	var file *config.FileConfig
	var err error
	if flags.ConfigPath != "" {
		file, err = config.LoadFile(flags.ConfigPath)
	} else {
		file, err = config.LoadOptionalFile(config.DefaultFilePath)
	}
	if err != nil {
		return config.Config{}, err
	}

	env, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Resolve(config.Defaults(), file, env, flags.Layer())
	if err != nil {
		return config.Config{}, err
	}

	cfg, err = cfg.ResolveSecrets(context.Background(), secret.NewResolver())
	if err != nil {
		return config.Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newObserver(ctx context.Context, cfg config.Config) (observe.Observer, error) {
	return observe.NewObserver(ctx, observe.Config{
		ServiceName: "toolgate",
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.TraceExporter != "none",
			Exporter:  cfg.TraceExporter,
			SamplePct: float64(cfg.TraceSamplePercent) / 100,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.MetricExporter != "none",
			Exporter: cfg.MetricExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   cfg.LogLevel,
		},
	})
}

func newGate(cfg config.Config) (auth.Gate, error) {
	// Inactive tokens are answers, not failures; only transport-level
	// introspection trouble should open the breaker.
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		IsFailure: func(err error) bool { return !errors.Is(err, auth.ErrTokenInactive) },
	})

	gate, err := auth.NewGate(cfg.AuthMode, auth.IntrospectionConfig{
		Endpoint:         auth.IntrospectionEndpoint(cfg.AuthServerURL),
		ClientID:         cfg.ClientID,
		ClientSecret:     cfg.ClientSecret,
		ClientAuthMethod: cfg.ClientAuthMethod,
		Timeout:          cfg.IntrospectionTimeout,
		CacheSize:        cfg.VerdictCacheSize,
		CacheTTL:         cfg.VerdictCacheTTL,
		Breaker:          breaker,
	})
	if err != nil {
		return nil, fmt.Errorf("building auth gate: %w", err)
	}
	return gate, nil
}

// newHealthAggregator registers the standard checkers. The memory store
// is a hard dependency; the authorization server is soft because cached
// verdicts keep requests flowing through a short outage.
func newHealthAggregator(store *memstore.Store, gate auth.Gate) *health.Aggregator {
	agg := health.NewAggregator()
	agg.Register("memory_store", health.NewPingChecker(health.PingCheckerConfig{
		Name:   "memory_store",
		Pinger: store,
	}))
	if pinger, ok := gate.(health.Pinger); ok {
		agg.Register("auth_server", health.NewPingChecker(health.PingCheckerConfig{
			Name:   "auth_server",
			Pinger: pinger,
			Soft:   true,
		}))
	}
	agg.Register("uptime", health.NewUptimeChecker())
	agg.Register("runtime", health.NewRuntimeChecker(health.RuntimeCheckerConfig{}))
	return agg
}

func newTransport(cfg config.Config, d *dispatch.Dispatcher, agg *health.Aggregator, log observe.Logger) (transport.Transport, error) {
	if cfg.Transport == config.TransportStdio {
		return transport.NewStdio(transport.StdioConfig{
			Handler: d.Dispatch,
			Logger:  log,
		})
	}

	httpCfg := transport.HTTPConfig{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      d.Dispatch,
		Health:       agg,
		RateLimit:    resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 100, Burst: 200}),
		ServeMetrics: cfg.MetricExporter == "prometheus",
		Logger:       log,
	}
	switch cfg.Transport {
	case config.TransportSSE:
		return transport.NewSSE(httpCfg)
	case config.TransportStreamableHTTP:
		return transport.NewStreamable(httpCfg)
	}
	return nil, config.Errorf("transport", "unknown transport %q", cfg.Transport)
}
