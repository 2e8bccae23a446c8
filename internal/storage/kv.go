package storage

import "context"

// KV is the durable string-keyed store the post store and persistent cache
// write through. Implementations give no transactional guarantees; callers
// own their own encoding and must tolerate absent or corrupt values.
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
