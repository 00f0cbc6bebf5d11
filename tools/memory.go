package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/toolgate/memstore"
	"github.com/jonwraymond/toolgate/registry"
)

// DefaultCollection receives memory items when the caller names none.
const DefaultCollection = "default"

// AddToMemory returns the tool that stores a snippet in long-term
// memory.
func AddToMemory(store *memstore.Store) registry.Tool {
	return registry.Tool{
		Name:        "add_to_memory",
		Description: "Saves a piece of text to a persistent long-term memory collection. Returns the id of the stored item.",
		InputSchema: objectSchema(map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Text to remember.",
			},
			"collection": map[string]any{
				"type":        "string",
				"description": "Collection to store into. Defaults to \"default\".",
			},
		}, "text"),
		Effect: registry.EffectMutating,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			text := stringArg(args, "text", "")
			collection := stringArg(args, "collection", DefaultCollection)

			id, err := store.Add(ctx, collection, text)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"status":  "success",
				"message": "Memory stored successfully.",
				"item_id": id,
			}, nil
		},
	}
}

// RecallFromMemory returns the tool that searches long-term memory.
func RecallFromMemory(store *memstore.Store) registry.Tool {
	return registry.Tool{
		Name:        "recall_from_memory",
		Description: "Searches long-term memory for items related to a query, ranked by how many query terms they contain.",
		InputSchema: objectSchema(map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What to look for.",
			},
			"collection": map[string]any{
				"type":        "string",
				"description": "Collection to search. Defaults to \"default\".",
			},
			"top_k": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Maximum number of results. Defaults to 5.",
			},
		}, "query"),
		Effect: registry.EffectReadOnly,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			query := stringArg(args, "query", "")
			collection := stringArg(args, "collection", DefaultCollection)
			topK := intArg(args, "top_k", 5)

			matches, err := store.Search(ctx, collection, query, topK)
			if err != nil {
				return nil, err
			}

			results := make([]map[string]any, 0, len(matches))
			for _, m := range matches {
				results = append(results, map[string]any{
					"id":    m.ID,
					"text":  m.Content,
					"score": m.Score,
				})
			}
			return map[string]any{
				"status":  "success",
				"results": results,
			}, nil
		},
	}
}

// ListMemoryCollections returns the tool that lists collection names.
func ListMemoryCollections(store *memstore.Store) registry.Tool {
	return registry.Tool{
		Name:        "list_memory_collections",
		Description: "Lists the names of all memory collections holding at least one item.",
		InputSchema: objectSchema(map[string]any{}),
		Effect:      registry.EffectReadOnly,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			collections, err := store.Collections(ctx)
			if err != nil {
				return nil, err
			}
			if collections == nil {
				collections = []string{}
			}
			return map[string]any{
				"status":      "success",
				"collections": collections,
			}, nil
		},
	}
}

// DeleteFromMemory returns the tool that removes one memory item.
func DeleteFromMemory(store *memstore.Store) registry.Tool {
	return registry.Tool{
		Name:        "delete_from_memory",
		Description: "Deletes a single memory item by its id.",
		InputSchema: objectSchema(map[string]any{
			"item_id": map[string]any{
				"type":        "string",
				"description": "Id returned when the item was stored.",
			},
			"collection": map[string]any{
				"type":        "string",
				"description": "Collection holding the item. Defaults to \"default\".",
			},
		}, "item_id"),
		Effect: registry.EffectMutating,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			itemID := stringArg(args, "item_id", "")
			collection := stringArg(args, "collection", DefaultCollection)

			if err := store.Delete(ctx, collection, itemID); err != nil {
				return nil, err
			}
			return map[string]any{
				"status":  "success",
				"message": fmt.Sprintf("Memory item '%s' deleted from collection '%s'.", itemID, collection),
			}, nil
		},
	}
}

// ClearMemoryCollection returns the tool that empties a collection.
func ClearMemoryCollection(store *memstore.Store) registry.Tool {
	return registry.Tool{
		Name:        "clear_memory_collection",
		Description: "Removes every item in a named memory collection.",
		InputSchema: objectSchema(map[string]any{
			"collection": map[string]any{
				"type":        "string",
				"description": "Collection to clear.",
			},
		}, "collection"),
		Effect: registry.EffectMutating,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			collection := stringArg(args, "collection", "")
			if collection == "" {
				return nil, errors.New("collection name cannot be empty")
			}

			if _, err := store.Clear(ctx, collection); err != nil {
				return nil, err
			}
			return map[string]any{
				"status":  "success",
				"message": fmt.Sprintf("Memory collection '%s' has been cleared.", collection),
			}, nil
		},
	}
}
