package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/toolgate/memstore"
	"github.com/jonwraymond/toolgate/registry"
)

// RegisterBuiltins registers the builtin tool set on reg. The memory
// suite is included only when store is non-nil. A nil web gets a
// default client.
func RegisterBuiltins(reg *registry.Registry, store *memstore.Store, web *WebClient) error {
	if web == nil {
		web = NewWebClient(WebConfig{})
	}

	builtins := []registry.Tool{
		Hello(),
		CurrentTime(),
		WeatherForecast(web),
		BitcoinPrice(web),
	}
	if store != nil {
		builtins = append(builtins,
			AddToMemory(store),
			RecallFromMemory(store),
			ListMemoryCollections(store),
			DeleteFromMemory(store),
			ClearMemoryCollection(store),
		)
	}

	for _, t := range builtins {
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("registering %s: %w", t.Name, err)
		}
	}
	return nil
}

// Hello returns the greeting tool.
func Hello() registry.Tool {
	return registry.Tool{
		Name:        "hello",
		Description: "Returns a friendly greeting. Useful for checking that the gateway is responding.",
		InputSchema: objectSchema(map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Name to greet. Defaults to World.",
			},
		}),
		Effect: registry.EffectReadOnly,
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			name := stringArg(args, "name", "World")
			return map[string]any{
				"status":   "success",
				"greeting": fmt.Sprintf("Hello, %s!", name),
			}, nil
		},
	}
}

// CurrentTime returns the clock tool. Only UTC is supported.
func CurrentTime() registry.Tool {
	return currentTimeTool(time.Now)
}

func currentTimeTool(now func() time.Time) registry.Tool {
	return registry.Tool{
		Name:        "get_current_time",
		Description: "Returns the current time. Only the UTC timezone is supported.",
		InputSchema: objectSchema(map[string]any{
			"timezone": map[string]any{
				"type":        "string",
				"description": "Timezone name. Only UTC is accepted.",
			},
		}),
		Effect: registry.EffectReadOnly,
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			tz := stringArg(args, "timezone", "UTC")
			if !strings.EqualFold(tz, "UTC") {
				return nil, fmt.Errorf("invalid timezone %q: only UTC is supported", tz)
			}

			utc := now().UTC()
			return map[string]any{
				"status":        "success",
				"timezone":      "UTC",
				"iso_format":    utc.Format(time.RFC3339Nano),
				"pretty_format": utc.Format("2006-01-02 15:04:05 MST"),
			}, nil
		},
	}
}

// objectSchema builds a strict JSON Schema for an object with the
// given properties. Unknown params are rejected.
func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// stringArg reads a string argument, falling back when the key is
// absent, not a string, or empty.
func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// intArg reads an integer argument, tolerating the float64 that JSON
// decoding produces.
func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
