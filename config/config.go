package config

import "time"

// Transport names the gateway can serve on.
const (
	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// Authentication modes.
const (
	AuthNone      = "none"
	AuthDelegated = "delegated"
)

// Client authentication methods for the introspection endpoint.
const (
	ClientAuthBasic = "client_secret_basic"
	ClientAuthPost  = "client_secret_post"
	ClientAuthJWT   = "client_secret_jwt"
)

// Config is the fully resolved gateway configuration. It is built once at
// startup by Resolve and treated as immutable afterwards.
type Config struct {
	Host      string
	Port      int
	Transport string
	LogLevel  string

	AuthMode             string
	AuthServerURL        string
	ClientID             string
	ClientSecret         string
	ClientAuthMethod     string
	IntrospectionTimeout time.Duration
	VerdictCacheSize     int
	VerdictCacheTTL      time.Duration

	MemoryDBPath string

	TraceExporter      string
	MetricExporter     string
	TraceSamplePercent int
}

// Defaults returns the built-in configuration, the lowest-precedence
// layer. Every field resolvable from a higher layer has a value here.
func Defaults() Config {
	return Config{
		Host:      "0.0.0.0",
		Port:      9624,
		Transport: TransportStdio,
		LogLevel:  "info",

		AuthMode:             AuthNone,
		AuthServerURL:        "http://localhost:9642",
		ClientAuthMethod:     ClientAuthBasic,
		IntrospectionTimeout: 5 * time.Second,
		VerdictCacheSize:     1024,
		VerdictCacheTTL:      5 * time.Minute,

		MemoryDBPath: "toolgate_memory.db",

		TraceExporter:      "none",
		MetricExporter:     "none",
		TraceSamplePercent: 100,
	}
}
