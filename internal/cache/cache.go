package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "fundgate-v1-"

// Key builds a namespaced cache key. The raw part is hashed so keys are
// safe as file names. Namespaces must not contain '-'.
func Key(namespace, raw string) string {
	hash := sha256.Sum256([]byte(raw))
	return keyPrefix + namespace + "-" + hex.EncodeToString(hash[:])
}

// Pruner is implemented by caches that can drop expired entries in bulk
type Pruner interface {
	Prune() (int, error)
}

// GetJSON decodes a cached JSON value into v
func GetJSON(c Cache, key string, v any) (bool, error) {
	data, ok := c.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v as JSON and stores it
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(key, data, ttl)
}
