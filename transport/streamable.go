package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/toolgate/dispatch"
	"github.com/jonwraymond/toolgate/observe"
	"github.com/jonwraymond/toolgate/rpc"
)

// Streamable serves JSON-RPC over plain HTTP: POST /mcp carries exactly
// one request per HTTP request and the JSON-RPC response rides back as
// the HTTP response body. Tool-level failures are still HTTP 200 with
// an error object; only undecodable bodies get a 4xx.
type Streamable struct {
	*httpServer

	handler Handler
	log     observe.Logger
}

// NewStreamable builds the transport, applying defaults for unset
// fields.
func NewStreamable(cfg HTTPConfig) (*Streamable, error) {
	if err := cfg.applyDefaults("streamable-http"); err != nil {
		return nil, err
	}

	t := &Streamable{
		handler: cfg.Handler,
		log:     cfg.Logger,
	}
	router := baseRouter(cfg, func(r chi.Router) {
		r.Post("/mcp", t.handleMCP)
	}, nil)
	t.httpServer = newHTTPServer("streamable-http", cfg, router)
	return t, nil
}

// Name implements Transport.
func (t *Streamable) Name() string { return "streamable-http" }

// Serve implements Transport.
func (t *Streamable) Serve(ctx context.Context) error {
	return t.httpServer.serve(ctx, nil)
}

// Shutdown implements Transport.
func (t *Streamable) Shutdown(ctx context.Context) error {
	return t.httpServer.shutdown(ctx, nil)
}

func (t *Streamable) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		http.Error(w, "reading request body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodyBytes {
		writeRPCResponse(t.log, w, http.StatusRequestEntityTooLarge,
			rpc.NewErrorResponse(nil, rpc.Errorf(rpc.CodeParse, "request exceeds %d bytes", maxBodyBytes)))
		return
	}

	req, rpcErr := rpc.Decode(body)
	if rpcErr != nil {
		var id []byte
		if req != nil {
			id = req.ID
		}
		writeRPCResponse(t.log, w, http.StatusBadRequest, rpc.NewErrorResponse(id, rpcErr))
		return
	}

	ctx := dispatch.WithTransport(r.Context(), t.Name())
	resp := t.handler(ctx, req, r.Header)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeRPCResponse(t.log, w, http.StatusOK, resp)
}

var _ Transport = (*Streamable)(nil)
