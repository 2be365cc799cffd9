package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/swytch/backend/internal/domain"
)

// loadKey reads one logical key from the store into dest. Returns false
// without touching dest when the key is absent.
func loadKey(ctx context.Context, store domain.Store, key string, dest any) (bool, error) {
	values, err := store.Get(ctx, []string{key})
	if err != nil {
		return false, fmt.Errorf("load %q: %w", key, err)
	}
	raw, ok := values[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// saveKey flushes one logical key to the store.
func saveKey(ctx context.Context, store domain.Store, key string, value any) error {
	if err := store.Set(ctx, map[string]any{key: value}); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}
