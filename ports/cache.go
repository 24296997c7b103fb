package ports

import (
	"context"
	"time"

	"github.com/garmlabs/garm/core"
)

// RevocationCache is a key -> status TTL store recording token validity and
// blacklist state. Any error from it means "cache unavailable"; callers fall
// back to stateless verification instead of propagating the failure.
type RevocationCache interface {
	// Set upserts the status for key with the given TTL. An existing entry for
	// the same key is fully replaced, which is how a Valid access token moves
	// to Blacklisted on logout.
	Set(ctx context.Context, key string, status core.TokenStatus, ttl time.Duration) error

	// Get returns the status for key. An absent or expired entry reports
	// found=false; an expired Valid entry is "unknown", never "valid".
	Get(ctx context.Context, key string) (status core.TokenStatus, found bool, err error)

	// Delete removes the entry if present and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Close stops any background eviction work owned by the cache.
	Close() error
}
