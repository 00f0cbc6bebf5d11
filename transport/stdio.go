package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/jonwraymond/toolgate/dispatch"
	"github.com/jonwraymond/toolgate/observe"
	"github.com/jonwraymond/toolgate/rpc"
)

// maxLineBytes bounds a single stdio frame. A line past this limit gets
// a parse error response and ends the stream, since the reader cannot
// resynchronize mid-line.
const maxLineBytes = 16 << 20

// StdioConfig configures the stdio transport.
type StdioConfig struct {
	// Handler answers each decoded request. Required.
	Handler Handler

	// Logger defaults to a no-op. The structured logger writes to
	// stderr, keeping stdout clean for protocol frames.
	Logger observe.Logger

	// In and Out default to os.Stdin and os.Stdout.
	In  io.Reader
	Out io.Writer
}

// Stdio speaks line-delimited JSON-RPC over a byte stream. Requests are
// dispatched strictly in arrival order and each response is written
// before the next line is read, so response order matches request order.
type Stdio struct {
	handler Handler
	log     observe.Logger
	in      io.Reader

	mu  sync.Mutex
	out io.Writer

	done     chan struct{}
	stopOnce sync.Once
}

// NewStdio builds the transport, applying defaults for unset fields.
func NewStdio(cfg StdioConfig) (*Stdio, error) {
	if cfg.Handler == nil {
		return nil, errors.New("transport: stdio handler is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	return &Stdio{
		handler: cfg.Handler,
		log:     cfg.Logger,
		in:      cfg.In,
		out:     cfg.Out,
		done:    make(chan struct{}),
	}, nil
}

// Name implements Transport.
func (s *Stdio) Name() string { return "stdio" }

// Serve reads frames until EOF, a fatal stream error, or cancellation.
// EOF is the client closing the conversation and returns nil.
func (s *Stdio) Serve(ctx context.Context) error {
	s.log.Info(ctx, "stdio transport serving")

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return s.finish(ctx, scanErr)
			}
			s.handleLine(ctx, line)
		}
	}
}

func (s *Stdio) finish(ctx context.Context, scanErr <-chan error) error {
	var err error
	select {
	case err = <-scanErr:
	default:
	}
	if err == nil {
		s.log.Info(ctx, "stdio transport closed", observe.Field{Key: "cause", Value: "eof"})
		return nil
	}
	if errors.Is(err, bufio.ErrTooLong) {
		s.write(ctx, rpc.NewErrorResponse(nil,
			rpc.Errorf(rpc.CodeParse, "request exceeds %d bytes", maxLineBytes)))
		return fmt.Errorf("stdio: frame exceeds %d bytes: %w", maxLineBytes, err)
	}
	return fmt.Errorf("stdio: reading stdin: %w", err)
}

// Shutdown implements Transport. The stdio stream has no in-flight
// drain to wait for; Serve returns as soon as it observes the signal.
func (s *Stdio) Shutdown(context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

func (s *Stdio) handleLine(ctx context.Context, line []byte) {
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}

	ctx = dispatch.WithTransport(ctx, s.Name())

	req, rpcErr := rpc.Decode(line)
	if rpcErr != nil {
		var id []byte
		if req != nil {
			id = req.ID
		}
		s.log.Warn(ctx, "rejecting malformed frame",
			observe.Field{Key: "code", Value: rpcErr.Code})
		s.write(ctx, rpc.NewErrorResponse(id, rpcErr))
		return
	}

	if resp := s.handler(ctx, req, http.Header{}); resp != nil {
		s.write(ctx, resp)
	}
}

func (s *Stdio) write(ctx context.Context, resp *rpc.Response) {
	data, err := rpc.Encode(resp)
	if err != nil {
		s.log.Error(ctx, "encoding response", observe.Field{Key: "error", Value: err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.log.Error(ctx, "writing response", observe.Field{Key: "error", Value: err.Error()})
	}
}

var _ Transport = (*Stdio)(nil)
