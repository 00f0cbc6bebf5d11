package transport

import (
	"context"
	"net/http"

	"github.com/jonwraymond/toolgate/rpc"
)

// Handler answers one decoded request. A nil response means the request
// was a notification and nothing goes back on the wire.
// dispatch.Dispatcher.Dispatch satisfies this signature.
type Handler func(ctx context.Context, req *rpc.Request, headers http.Header) *rpc.Response

// Transport serves JSON-RPC traffic until told to stop.
//
// Serve blocks until a fatal error or until ctx is canceled; cancellation
// is a clean shutdown and returns nil. Shutdown stops accepting new work,
// drains what is in flight within the given context, and may be called
// any number of times.
type Transport interface {
	Name() string
	Serve(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
