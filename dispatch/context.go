package dispatch

import "context"

type contextKey int

const transportKey contextKey = iota

// WithTransport tags the context with the transport a request arrived
// on. Transports call it before dispatching.
func WithTransport(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, transportKey, name)
}

// TransportFromContext returns the transport tag, or "" when the
// context carries none.
func TransportFromContext(ctx context.Context) string {
	name, _ := ctx.Value(transportKey).(string)
	return name
}
