package dispatch

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonwraymond/toolgate/registry"
	"github.com/jonwraymond/toolgate/rpc"
)

// schemaCache compiles each tool's input schema once. The registry is
// frozen at startup, so entries never need invalidation.
type schemaCache struct {
	mu       sync.RWMutex
	compiled map[string]*gojsonschema.Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{compiled: make(map[string]*gojsonschema.Schema)}
}

// check validates args against the tool's schema. Nil means the args
// are valid. A tool without a schema accepts anything.
func (c *schemaCache) check(tool registry.Tool, args map[string]any) *rpc.Error {
	if tool.InputSchema == nil {
		return nil
	}

	schema, err := c.compile(tool)
	if err != nil {
		return rpc.Errorf(rpc.CodeInternal, "tool %s has an unusable schema", tool.Name)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return rpc.Errorf(rpc.CodeInvalidParams, "params: %v", err)
	}
	if result.Valid() {
		return nil
	}
	return rpc.NewError(rpc.CodeInvalidParams, describeViolation(result.Errors()))
}

func (c *schemaCache) compile(tool registry.Tool) (*gojsonschema.Schema, error) {
	c.mu.RLock()
	schema, ok := c.compiled[tool.Name]
	c.mu.RUnlock()
	if ok {
		return schema, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if schema, ok := c.compiled[tool.Name]; ok {
		return schema, nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.InputSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling schema for %s: %w", tool.Name, err)
	}
	c.compiled[tool.Name] = schema
	return schema, nil
}

// describeViolation renders the first violation with the offending
// field up front, e.g. "params.name: Invalid type. Expected: string,
// given: integer".
func describeViolation(errs []gojsonschema.ResultError) string {
	if len(errs) == 0 {
		return "params: invalid"
	}

	first := errs[0]
	if field := first.Field(); field != "(root)" {
		return "params." + field + ": " + first.Description()
	}
	return "params: " + first.Description()
}
