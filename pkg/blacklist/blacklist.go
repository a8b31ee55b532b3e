// Package blacklist records bearer and refresh tokens that were revoked
// before their natural expiry. Entries are keyed by the token fingerprint and
// expire with the token, so the set never outgrows the live token population.
package blacklist

import (
	"context"
	"time"

	"github.com/tdmidas/NT219-Project-Cloud-API-Security/pkg/cryptox"
)

// Blacklist is a TTL'd set of revoked tokens. Implementations must be safe for
// concurrent use; shared implementations make revocation visible to every
// process verifying tokens.
type Blacklist interface {
	// Add revokes token for ttl. A non-positive ttl is a no-op because the
	// token has already expired on its own.
	Add(ctx context.Context, token string, ttl time.Duration) error

	// AddKey revokes by fingerprint (see Key). Stored refresh tokens are only
	// known by their fingerprint, so bulk revocation goes through here.
	AddKey(ctx context.Context, key string, ttl time.Duration) error

	// Contains reports whether token is currently revoked.
	Contains(ctx context.Context, token string) (bool, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Key returns the storage key for token. Raw tokens are never stored.
func Key(token string) string {
	return cryptox.FingerprintToken(token)
}
