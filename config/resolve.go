package config

import "time"

// Resolve merges the given layers over the defaults, lowest precedence
// first. Pass layers in the order file, environment, flags; nil layers
// are skipped. Precedence is per field: a layer overrides only the fields
// it sets.
func Resolve(defaults Config, layers ...*FileConfig) (Config, error) {
	cfg := defaults
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		if err := apply(&cfg, layer); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func apply(cfg *Config, layer *FileConfig) error {
	if layer.Host != nil {
		cfg.Host = *layer.Host
	}
	if layer.Port != nil {
		cfg.Port = *layer.Port
	}
	if layer.Transport != nil {
		cfg.Transport = *layer.Transport
	}
	if layer.LogLevel != nil {
		cfg.LogLevel = *layer.LogLevel
	}
	if layer.AuthMode != nil {
		cfg.AuthMode = *layer.AuthMode
	}
	if layer.AuthServerURL != nil {
		cfg.AuthServerURL = *layer.AuthServerURL
	}
	if layer.ClientID != nil {
		cfg.ClientID = *layer.ClientID
	}
	if layer.ClientSecret != nil {
		cfg.ClientSecret = *layer.ClientSecret
	}
	if layer.ClientAuthMethod != nil {
		cfg.ClientAuthMethod = *layer.ClientAuthMethod
	}
	if layer.IntrospectionTimeout != nil {
		d, err := parseDuration("introspection_timeout", *layer.IntrospectionTimeout, layer.Source)
		if err != nil {
			return err
		}
		cfg.IntrospectionTimeout = d
	}
	if layer.VerdictCacheSize != nil {
		cfg.VerdictCacheSize = *layer.VerdictCacheSize
	}
	if layer.VerdictCacheTTL != nil {
		d, err := parseDuration("verdict_cache_ttl", *layer.VerdictCacheTTL, layer.Source)
		if err != nil {
			return err
		}
		cfg.VerdictCacheTTL = d
	}
	if layer.MemoryDBPath != nil {
		cfg.MemoryDBPath = *layer.MemoryDBPath
	}
	if layer.TraceExporter != nil {
		cfg.TraceExporter = *layer.TraceExporter
	}
	if layer.MetricExporter != nil {
		cfg.MetricExporter = *layer.MetricExporter
	}
	if layer.TraceSamplePercent != nil {
		cfg.TraceSamplePercent = *layer.TraceSamplePercent
	}
	return nil
}

func parseDuration(field, value, source string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, Errorf(field, "invalid duration %q in %s", value, source)
	}
	return d, nil
}
