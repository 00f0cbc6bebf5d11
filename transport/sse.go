package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/jonwraymond/toolgate/dispatch"
	"github.com/jonwraymond/toolgate/observe"
	"github.com/jonwraymond/toolgate/rpc"
)

// sseEvent is one frame queued for a session's event stream. The id is
// the correlation id of the POST that produced it.
type sseEvent struct {
	id   string
	data []byte
}

type sseSession struct {
	id     string
	events chan sseEvent
	gone   chan struct{}
}

// SSE serves JSON-RPC over server-sent events. A client opens
// GET /sse, learns its POST ingress path from the first frame, and
// receives responses as events on the stream. Requests land on
// POST /messages?session_id=... and are answered asynchronously, so
// slow tools never block the ingress; the correlation id on each event
// lets concurrent callers pair responses with requests.
type SSE struct {
	*httpServer

	handler   Handler
	log       observe.Logger
	keepalive time.Duration

	closed chan struct{}

	sessMu   sync.RWMutex
	sessions map[string]*sseSession
}

// NewSSE builds the transport, applying defaults for unset fields.
func NewSSE(cfg HTTPConfig) (*SSE, error) {
	if err := cfg.applyDefaults("sse"); err != nil {
		return nil, err
	}

	t := &SSE{
		handler:   cfg.Handler,
		log:       cfg.Logger,
		keepalive: 15 * time.Second,
		closed:    make(chan struct{}),
		sessions:  make(map[string]*sseSession),
	}
	router := baseRouter(cfg,
		func(r chi.Router) {
			r.Post("/messages", t.handleMessage)
		},
		func(r chi.Router) {
			r.Get("/sse", t.handleStream)
		})
	t.httpServer = newHTTPServer("sse", cfg, router)
	return t, nil
}

// Name implements Transport.
func (t *SSE) Name() string { return "sse" }

// Serve implements Transport.
func (t *SSE) Serve(ctx context.Context) error {
	return t.httpServer.serve(ctx, t.stopStreams)
}

// Shutdown implements Transport. Open event streams are ended first so
// the server can drain them within ctx.
func (t *SSE) Shutdown(ctx context.Context) error {
	return t.httpServer.shutdown(ctx, t.stopStreams)
}

func (t *SSE) stopStreams() { close(t.closed) }

func (t *SSE) addSession() *sseSession {
	sess := &sseSession{
		id:     uuid.NewString(),
		events: make(chan sseEvent, 16),
		gone:   make(chan struct{}),
	}
	t.sessMu.Lock()
	t.sessions[sess.id] = sess
	t.sessMu.Unlock()
	return sess
}

func (t *SSE) removeSession(sess *sseSession) {
	t.sessMu.Lock()
	delete(t.sessions, sess.id)
	t.sessMu.Unlock()
	close(sess.gone)
}

func (t *SSE) session(id string) *sseSession {
	t.sessMu.RLock()
	defer t.sessMu.RUnlock()
	return t.sessions[id]
}

// handleStream opens the event stream. The first frame names the POST
// ingress for this session; after that the stream carries responses and
// keepalive comments until the client disconnects or the server stops.
func (t *SSE) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := t.addSession()
	defer t.removeSession(sess)

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-store")
	hdr.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: endpoint\ndata: /messages?session_id=%s\n\n", sess.id)
	flusher.Flush()

	t.log.Debug(r.Context(), "event stream opened",
		observe.Field{Key: "session", Value: sess.id})

	ticker := time.NewTicker(t.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-t.closed:
			return
		case ev := <-sess.events:
			if ev.id != "" {
				fmt.Fprintf(w, "id: %s\n", ev.id)
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", ev.data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// handleMessage accepts one JSON-RPC request for a session. Decode
// failures are answered in the POST body; everything else is accepted
// with 202 and answered on the session's event stream.
func (t *SSE) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess := t.session(r.URL.Query().Get("session_id"))
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

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

	corr := middleware.GetReqID(r.Context())
	headers := r.Header.Clone()

	// The POST returns 202 now; dispatch continues past it, tied to the
	// server's lifetime rather than this request's.
	ctx := dispatch.WithTransport(context.WithoutCancel(r.Context()), t.Name())
	go func() {
		resp := t.handler(ctx, req, headers)
		if resp == nil {
			return
		}
		data, err := rpc.Encode(resp)
		if err != nil {
			t.log.Error(ctx, "encoding response",
				observe.Field{Key: "error", Value: err.Error()})
			return
		}
		t.deliver(ctx, sess, sseEvent{id: corr, data: data})
	}()

	w.Header().Set("X-Request-Id", corr)
	w.WriteHeader(http.StatusAccepted)
}

func (t *SSE) deliver(ctx context.Context, sess *sseSession, ev sseEvent) {
	select {
	case sess.events <- ev:
	case <-sess.gone:
	case <-t.closed:
	case <-time.After(5 * time.Second):
		t.log.Warn(ctx, "dropping response for stalled event stream",
			observe.Field{Key: "session", Value: sess.id},
			observe.Field{Key: "correlation_id", Value: ev.id})
	}
}

var _ Transport = (*SSE)(nil)
