package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/druidkit/internal/query"
	"github.com/roach88/druidkit/internal/wire"
)

// QueryDomain is the hash domain of cache keys.
const QueryDomain = "druidkit/query/v1"

// executionKeys are context keys that do not affect a query's result.
var executionKeys = []string{"queryId", "timeout", "priority", "lane"}

// Key returns the cache key of q.
func Key(q query.Query) (string, error) {
	data, err := query.Encode(q)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	if ctx, ok := obj["context"].(map[string]any); ok {
		for _, k := range executionKeys {
			delete(ctx, k)
		}
		if len(ctx) == 0 {
			delete(obj, "context")
		}
	}
	return wire.Hash(QueryDomain, obj)
}
