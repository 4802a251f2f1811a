package gate

import (
	"context"
	"time"
)

// TTLCache is the fast-path tier of the reservation gate. It is strictly
// an optimization: a process restart empties it, so the durable store
// remains the source of truth for duplicate detection.
type TTLCache interface {
	// Set stores a marker key with the given TTL
	Set(ctx context.Context, key string, ttl time.Duration) error

	// Exists reports whether a non-expired marker exists for the key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the marker. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases cache resources
	Close() error
}
