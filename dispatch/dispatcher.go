package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonwraymond/toolgate/auth"
	"github.com/jonwraymond/toolgate/cache"
	"github.com/jonwraymond/toolgate/observe"
	"github.com/jonwraymond/toolgate/registry"
	"github.com/jonwraymond/toolgate/resilience"
	"github.com/jonwraymond/toolgate/rpc"
)

// ProtocolVersion is the protocol revision answered to initialize.
const ProtocolVersion = "2024-11-05"

// Config configures a Dispatcher.
type Config struct {
	// Registry resolves tool names. Required.
	Registry *registry.Registry

	// Gate admits requests. Default: auth.AllowAllGate.
	Gate auth.Gate

	// Middleware instruments invocations and carries the request and
	// denial counters. Nil runs handlers without telemetry.
	Middleware *observe.Middleware

	// Cache serves repeated read-only invocations. Nil disables result
	// caching.
	Cache *cache.Middleware

	// MaxConcurrent bounds in-flight tool invocations. Default: 64.
	MaxConcurrent int

	// Logger receives dispatch logs. Default: drop them.
	Logger observe.Logger

	// ServerName and ServerVersion identify the gateway in initialize
	// results. Defaults: "toolgate" and "dev".
	ServerName    string
	ServerVersion string
}

// Dispatcher runs requests through the gate, validation and the
// invocation chain. One instance serves every transport concurrently.
type Dispatcher struct {
	cfg      Config
	schemas  *schemaCache
	bulkhead *resilience.Bulkhead
}

// New builds a dispatcher, applying defaults for unset fields.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Registry == nil {
		return nil, errors.New("dispatch: registry is required")
	}
	if cfg.Gate == nil {
		cfg.Gate = auth.AllowAllGate{}
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 64
	}
	if cfg.ServerName == "" {
		cfg.ServerName = "toolgate"
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}

	return &Dispatcher{
		cfg:      cfg,
		schemas:  newSchemaCache(),
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: cfg.MaxConcurrent}),
	}, nil
}

// Dispatch runs one decoded request through the pipeline. The returned
// response echoes the request id; a notification returns nil after the
// pipeline has run.
func (d *Dispatcher) Dispatch(ctx context.Context, req *rpc.Request, headers http.Header) *rpc.Response {
	resp := d.handle(ctx, req, headers)

	code := 0
	if resp.Error != nil {
		code = resp.Error.Code
	}
	d.recordRequest(ctx, req.Method, code)

	if req.IsNotification() {
		return nil
	}
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, req *rpc.Request, headers http.Header) *rpc.Response {
	// ping answers before the gate so liveness probing needs no token.
	if req.Method == "ping" {
		return rpc.NewResult(req.ID, map[string]any{})
	}

	decision := d.cfg.Gate.Check(ctx, headers)
	if !decision.Allowed {
		d.recordDenial(ctx, decision.Reason)
		d.cfg.Logger.Warn(ctx, "request denied",
			observe.Field{Key: "method", Value: req.Method},
			observe.Field{Key: "reason", Value: decision.Reason},
		)
		return rpc.NewErrorResponse(req.ID,
			rpc.NewError(rpc.CodeUnauthorized, "unauthorized").
				WithData(map[string]any{"reason": decision.Reason}))
	}
	ctx = auth.WithIdentity(ctx, decision.Identity)

	switch req.Method {
	case "initialize":
		return d.initialize(req)
	case "tools/list":
		return d.listTools(req)
	}

	tool, ok := d.cfg.Registry.Lookup(req.Method)
	if !ok {
		return rpc.NewErrorResponse(req.ID,
			rpc.Errorf(rpc.CodeMethodNotFound, "method not found: %s", req.Method))
	}

	args := map[string]any{}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &args); err != nil {
			return rpc.NewErrorResponse(req.ID,
				rpc.NewError(rpc.CodeInvalidParams, "params must be an object"))
		}
	}

	if rpcErr := d.schemas.check(tool, args); rpcErr != nil {
		return rpc.NewErrorResponse(req.ID, rpcErr)
	}

	result, err := d.invoke(ctx, tool, args)
	if err != nil {
		return rpc.NewErrorResponse(req.ID, rpc.NewError(rpc.CodeToolFailure, err.Error()))
	}
	return rpc.NewResult(req.ID, result)
}

func (d *Dispatcher) initialize(req *rpc.Request) *rpc.Response {
	return rpc.NewResult(req.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    d.cfg.ServerName,
			"version": d.cfg.ServerVersion,
		},
	})
}

func (d *Dispatcher) listTools(req *rpc.Request) *rpc.Response {
	list := d.cfg.Registry.List()
	entries := make([]map[string]any, 0, len(list))
	for _, tool := range list {
		entries = append(entries, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}
	return rpc.NewResult(req.ID, map[string]any{"tools": entries})
}

// invoke runs the tool through the instrumentation, the bulkhead and
// the cache.
func (d *Dispatcher) invoke(ctx context.Context, tool registry.Tool, args map[string]any) (any, error) {
	meta := observe.ToolMeta{
		Name:      tool.Name,
		Effect:    string(tool.Effect),
		Transport: TransportFromContext(ctx),
	}

	run := func(ctx context.Context, _ observe.ToolMeta, args map[string]any) (any, error) {
		var out any
		err := d.bulkhead.Execute(ctx, func(ctx context.Context) error {
			var callErr error
			out, callErr = d.callTool(ctx, tool, args)
			return callErr
		})
		return out, err
	}

	if d.cfg.Middleware != nil {
		return d.cfg.Middleware.Wrap(run)(ctx, meta, args)
	}
	return run(ctx, meta, args)
}

// callTool is the innermost step: the result cache around the handler.
// A panicking handler is converted to an error here so the slot and
// the process both survive it.
func (d *Dispatcher) callTool(ctx context.Context, tool registry.Tool, args map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", tool.Name, r)
			d.cfg.Logger.Error(ctx, "tool handler panicked",
				observe.Field{Key: "tool", Value: tool.Name},
				observe.Field{Key: "panic", Value: fmt.Sprint(r)},
			)
		}
	}()

	if d.cfg.Cache != nil {
		mutating := tool.Effect == registry.EffectMutating
		return d.cfg.Cache.Execute(ctx, tool.Name, mutating, args, cache.InvokeFunc(tool.Handler))
	}
	return tool.Handler(ctx, args)
}

func (d *Dispatcher) recordRequest(ctx context.Context, method string, code int) {
	if d.cfg.Middleware != nil {
		d.cfg.Middleware.Metrics().RecordRequest(ctx, method, code)
	}
}

func (d *Dispatcher) recordDenial(ctx context.Context, reason string) {
	if d.cfg.Middleware != nil {
		d.cfg.Middleware.Metrics().RecordDenial(ctx, reason)
	}
}
