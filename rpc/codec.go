package rpc

import "encoding/json"

// Decode parses a single JSON-RPC request from raw bytes.
//
// Contract:
//   - Syntactically invalid JSON returns CodeParse.
//   - Valid JSON that is not a conforming request object (wrong shape,
//     missing or wrong jsonrpc version, empty method) returns
//     CodeInvalidRequest, with the request id preserved when one could be
//     read.
//   - Decode never panics, whatever the input.
func Decode(data []byte) (*Request, *Error) {
	if !json.Valid(data) {
		return nil, NewError(CodeParse, "parse error")
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, NewError(CodeInvalidRequest, "invalid request: not a request object")
	}
	if req.JSONRPC != Version {
		return &req, Errorf(CodeInvalidRequest, "invalid request: unsupported jsonrpc version %q", req.JSONRPC)
	}
	if req.Method == "" {
		return &req, NewError(CodeInvalidRequest, "invalid request: missing method")
	}
	return &req, nil
}

// Encode serializes a response to wire bytes.
func Encode(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}
