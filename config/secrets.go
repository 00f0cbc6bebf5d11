package config

import (
	"context"

	"github.com/jonwraymond/toolgate/secret"
)

// ResolveSecrets expands environment references and secretrefs in the
// secret-bearing fields. Run after Resolve and before Validate so that a
// failed expansion surfaces as the fatal startup error it is.
func (c Config) ResolveSecrets(ctx context.Context, r *secret.Resolver) (Config, error) {
	var err error
	if c.ClientSecret != "" {
		if c.ClientSecret, err = r.Resolve(ctx, c.ClientSecret); err != nil {
			return Config{}, Errorf("client_secret", "%v", err)
		}
	}
	if c.ClientID != "" {
		if c.ClientID, err = r.Resolve(ctx, c.ClientID); err != nil {
			return Config{}, Errorf("client_id", "%v", err)
		}
	}
	if c.AuthServerURL != "" {
		if c.AuthServerURL, err = r.Resolve(ctx, c.AuthServerURL); err != nil {
			return Config{}, Errorf("auth_server_url", "%v", err)
		}
	}
	return c, nil
}
