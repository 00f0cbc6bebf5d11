package rpc

import "encoding/json"

// Version is the only protocol version the gateway speaks.
const Version = "2.0"

// Request is a single JSON-RPC 2.0 request or notification.
//
// Params and ID are kept raw: params are decoded later against the target
// tool's schema, and the id must be echoed back byte-identically whether it
// is a number, a string, or null. An absent id member leaves ID nil, which
// is how notifications are recognized.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// IsNotification reports whether the request carries no id member.
// An explicit "id": null is not a notification; it is answered with a
// response whose id is null.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response is a single JSON-RPC 2.0 response. Exactly one of Result or
// Error is set. The id field is always serialized; a nil ID encodes as
// null, which is what the protocol requires when the request id could not
// be determined.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// NewResult builds a success response echoing the given id.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, Result: result, ID: id}
}

// NewErrorResponse builds an error response echoing the given id. Pass a
// nil id when the request id is unknown; it serializes as null.
func NewErrorResponse(id json.RawMessage, rpcErr *Error) *Response {
	return &Response{JSONRPC: Version, Error: rpcErr, ID: id}
}
