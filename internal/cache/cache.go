// Package cache stores serialized parse results keyed by upload digest.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Store is a byte cache with per-entry expiry. A ttl of zero means no expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Key returns the cache key for an uploaded document.
func Key(upload []byte) string {
	sum := sha256.Sum256(upload)
	return "docparse:" + hex.EncodeToString(sum[:])
}
