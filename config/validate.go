package config

import (
	"net/url"
)

var validTransports = map[string]bool{
	TransportStdio:          true,
	TransportSSE:            true,
	TransportStreamableHTTP: true,
}

var validLogLevels = map[string]bool{
	"debug":    true,
	"info":     true,
	"warning":  true,
	"error":    true,
	"critical": true,
}

var validAuthModes = map[string]bool{
	AuthNone:      true,
	AuthDelegated: true,
}

var validClientAuthMethods = map[string]bool{
	ClientAuthBasic: true,
	ClientAuthPost:  true,
	ClientAuthJWT:   true,
}

var validTraceExporters = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

var validMetricExporters = map[string]bool{
	"none":       true,
	"stdout":     true,
	"otlp":       true,
	"prometheus": true,
}

// Validate checks the merged configuration. The first failure wins; any
// failure is fatal to startup.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return Errorf("port", "must be between 1 and 65535, got %d", c.Port)
	}
	if !validTransports[c.Transport] {
		return Errorf("transport", "unknown transport %q", c.Transport)
	}
	if !validLogLevels[c.LogLevel] {
		return Errorf("log_level", "unknown log level %q", c.LogLevel)
	}
	if !validAuthModes[c.AuthMode] {
		return Errorf("authentication", "unknown mode %q", c.AuthMode)
	}

	if c.AuthMode == AuthDelegated {
		if c.AuthServerURL == "" {
			return Errorf("auth_server_url", "required when authentication is %q", AuthDelegated)
		}
		u, err := url.Parse(c.AuthServerURL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Errorf("auth_server_url", "not an absolute http(s) URL: %q", c.AuthServerURL)
		}
		if !validClientAuthMethods[c.ClientAuthMethod] {
			return Errorf("client_auth_method", "unknown method %q", c.ClientAuthMethod)
		}
		if c.ClientAuthMethod == ClientAuthJWT && c.ClientSecret == "" {
			return Errorf("client_secret", "required for %s", ClientAuthJWT)
		}
		if c.IntrospectionTimeout <= 0 {
			return Errorf("introspection_timeout", "must be positive, got %s", c.IntrospectionTimeout)
		}
		if c.VerdictCacheSize < 1 {
			return Errorf("verdict_cache_size", "must be at least 1, got %d", c.VerdictCacheSize)
		}
		if c.VerdictCacheTTL <= 0 {
			return Errorf("verdict_cache_ttl", "must be positive, got %s", c.VerdictCacheTTL)
		}
	}

	if !validTraceExporters[c.TraceExporter] {
		return Errorf("trace_exporter", "unknown exporter %q", c.TraceExporter)
	}
	if !validMetricExporters[c.MetricExporter] {
		return Errorf("metric_exporter", "unknown exporter %q", c.MetricExporter)
	}
	if c.TraceSamplePercent < 0 || c.TraceSamplePercent > 100 {
		return Errorf("trace_sample_percent", "must be between 0 and 100, got %d", c.TraceSamplePercent)
	}

	return nil
}
