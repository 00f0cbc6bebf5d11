package config

import "flag"

// Flags holds the command-line flag values before resolution. Only flags
// the operator actually set on the command line become part of the layer;
// flag defaults never mask lower layers.
type Flags struct {
	fs *flag.FlagSet

	host             string
	port             int
	transport        string
	logLevel         string
	authMode         string
	authServerURL    string
	clientID         string
	clientSecret     string
	clientAuthMethod string
	memoryDBPath     string

	// ConfigPath is the --config flag, consumed before resolution.
	ConfigPath string
}

// BindFlags registers the gateway's flags on fs. Call fs.Parse, then
// Layer to extract the set fields.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	d := Defaults()

	fs.StringVar(&f.host, "host", d.Host, "interface to bind HTTP transports to")
	fs.IntVar(&f.port, "port", d.Port, "port for HTTP transports")
	fs.StringVar(&f.transport, "transport", d.Transport, "transport: stdio, sse, or streamable-http")
	fs.StringVar(&f.logLevel, "log-level", d.LogLevel, "log level: debug, info, warning, error, critical")
	fs.StringVar(&f.authMode, "authentication", d.AuthMode, "authentication mode: none or delegated")
	fs.StringVar(&f.authServerURL, "auth-server-url", d.AuthServerURL, "authorization server base URL (delegated mode)")
	fs.StringVar(&f.clientID, "client-id", "", "client id for introspection requests")
	fs.StringVar(&f.clientSecret, "client-secret", "", "client secret for introspection requests")
	fs.StringVar(&f.clientAuthMethod, "client-auth-method", d.ClientAuthMethod, "introspection client authentication method")
	fs.StringVar(&f.memoryDBPath, "memory-db-path", d.MemoryDBPath, "path to the memory store database")
	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML config file")

	return f
}

// Layer returns the flag layer containing only flags that were set.
func (f *Flags) Layer() *FileConfig {
	fc := &FileConfig{Source: "flags"}

	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "host":
			fc.Host = &f.host
		case "port":
			fc.Port = &f.port
		case "transport":
			fc.Transport = &f.transport
		case "log-level":
			fc.LogLevel = &f.logLevel
		case "authentication":
			fc.AuthMode = &f.authMode
		case "auth-server-url":
			fc.AuthServerURL = &f.authServerURL
		case "client-id":
			fc.ClientID = &f.clientID
		case "client-secret":
			fc.ClientSecret = &f.clientSecret
		case "client-auth-method":
			fc.ClientAuthMethod = &f.clientAuthMethod
		case "memory-db-path":
			fc.MemoryDBPath = &f.memoryDBPath
		}
	})

	return fc
}
