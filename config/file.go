package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultFilePath is probed when no --config flag is given. A missing file
// at this path is not an error; a missing explicitly-named file is.
const DefaultFilePath = "toolgate.yaml"

// FileConfig is one unmerged configuration layer. Every field is a
// pointer so that "not set in this layer" is distinguishable from a zero
// value; only set fields participate in resolution. Durations are kept as
// strings until merge so the error can name the layer they came from.
type FileConfig struct {
	Host                 *string `yaml:"host"`
	Port                 *int    `yaml:"port"`
	Transport            *string `yaml:"transport"`
	LogLevel             *string `yaml:"log_level"`
	AuthMode             *string `yaml:"authentication"`
	AuthServerURL        *string `yaml:"auth_server_url"`
	ClientID             *string `yaml:"client_id"`
	ClientSecret         *string `yaml:"client_secret"`
	ClientAuthMethod     *string `yaml:"client_auth_method"`
	IntrospectionTimeout *string `yaml:"introspection_timeout"`
	VerdictCacheSize     *int    `yaml:"verdict_cache_size"`
	VerdictCacheTTL      *string `yaml:"verdict_cache_ttl"`
	MemoryDBPath         *string `yaml:"memory_db_path"`
	TraceExporter        *string `yaml:"trace_exporter"`
	MetricExporter       *string `yaml:"metric_exporter"`
	TraceSamplePercent   *int    `yaml:"trace_sample_percent"`

	// Source names the layer in merge errors ("file toolgate.yaml",
	// "environment", "flags").
	Source string `yaml:"-"`
}

// LoadFile reads and strictly decodes a YAML config file. Unknown keys are
// an error; a missing file is an error. Use LoadOptionalFile for paths the
// operator did not name explicitly.
func LoadFile(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Errorf("config file", "cannot open %s: %v", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var fc FileConfig
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			fc = FileConfig{}
		} else {
			return nil, Errorf("config file", "cannot parse %s: %v", path, err)
		}
	}
	fc.Source = fmt.Sprintf("file %s", path)
	return &fc, nil
}

// LoadOptionalFile is LoadFile except that a missing file yields an empty
// layer instead of an error.
func LoadOptionalFile(path string) (*FileConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return LoadFile(path)
}

// Environment variable names, one per resolvable field.
const (
	EnvHost                 = "TOOLGATE_HOST"
	EnvPort                 = "TOOLGATE_PORT"
	EnvTransport            = "TOOLGATE_TRANSPORT"
	EnvLogLevel             = "TOOLGATE_LOG_LEVEL"
	EnvAuthMode             = "TOOLGATE_AUTH"
	EnvAuthServerURL        = "TOOLGATE_AUTH_SERVER_URL"
	EnvClientID             = "TOOLGATE_CLIENT_ID"
	EnvClientSecret         = "TOOLGATE_CLIENT_SECRET"
	EnvClientAuthMethod     = "TOOLGATE_CLIENT_AUTH_METHOD"
	EnvIntrospectionTimeout = "TOOLGATE_INTROSPECTION_TIMEOUT"
	EnvVerdictCacheSize     = "TOOLGATE_VERDICT_CACHE_SIZE"
	EnvVerdictCacheTTL      = "TOOLGATE_VERDICT_CACHE_TTL"
	EnvMemoryDBPath         = "TOOLGATE_MEMORY_DB_PATH"
	EnvTraceExporter        = "TOOLGATE_TRACE_EXPORTER"
	EnvMetricExporter       = "TOOLGATE_METRIC_EXPORTER"
	EnvTraceSamplePercent   = "TOOLGATE_TRACE_SAMPLE_PERCENT"
)

// FromEnv builds the environment layer from TOOLGATE_* variables. Unset
// variables leave their fields nil. Integer variables that do not parse
// return an Error naming the variable.
func FromEnv() (*FileConfig, error) {
	fc := &FileConfig{Source: "environment"}

	fc.Host = lookupEnv(EnvHost)
	fc.Transport = lookupEnv(EnvTransport)
	fc.LogLevel = lookupEnv(EnvLogLevel)
	fc.AuthMode = lookupEnv(EnvAuthMode)
	fc.AuthServerURL = lookupEnv(EnvAuthServerURL)
	fc.ClientID = lookupEnv(EnvClientID)
	fc.ClientSecret = lookupEnv(EnvClientSecret)
	fc.ClientAuthMethod = lookupEnv(EnvClientAuthMethod)
	fc.IntrospectionTimeout = lookupEnv(EnvIntrospectionTimeout)
	fc.VerdictCacheTTL = lookupEnv(EnvVerdictCacheTTL)
	fc.MemoryDBPath = lookupEnv(EnvMemoryDBPath)
	fc.TraceExporter = lookupEnv(EnvTraceExporter)
	fc.MetricExporter = lookupEnv(EnvMetricExporter)

	var err error
	if fc.Port, err = lookupEnvInt(EnvPort); err != nil {
		return nil, err
	}
	if fc.VerdictCacheSize, err = lookupEnvInt(EnvVerdictCacheSize); err != nil {
		return nil, err
	}
	if fc.TraceSamplePercent, err = lookupEnvInt(EnvTraceSamplePercent); err != nil {
		return nil, err
	}
	return fc, nil
}

func lookupEnv(name string) *string {
	if v, ok := os.LookupEnv(name); ok {
		return &v
	}
	return nil
}

func lookupEnvInt(name string) (*int, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, Errorf(name, "not an integer: %q", v)
	}
	return &n, nil
}
