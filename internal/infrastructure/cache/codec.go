package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cometsur/checkin-sync/internal/core/ports"
)

// ReadJSON decodes the JSON value stored under key. A missing or corrupt
// value yields ok=false; callers substitute their own default.
func ReadJSON[T any](ctx context.Context, store ports.CacheStore, key string) (T, bool) {
	var out T
	raw, ok := store.Read(ctx, key)
	if !ok || raw == "" {
		return out, false
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// WriteJSON stores v as JSON text under key.
func WriteJSON(ctx context.Context, store ports.CacheStore, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Write(ctx, key, string(b))
}
