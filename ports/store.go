package ports

import (
	"context"
	"time"

	"github.com/DCMX-Protocol/walletgate/core"
)

// ChallengeStore holds outstanding challenges keyed by wallet address.
// It is the only mutable shared state in the service; Take must be
// atomic per key so that concurrent logins cannot both observe the
// same challenge.
type ChallengeStore interface {
	// Put stores a challenge for the address, replacing any prior one.
	Put(ctx context.Context, address string, ch *core.Challenge, ttl time.Duration) error

	// Get returns the outstanding challenge without consuming it.
	Get(ctx context.Context, address string) (*core.Challenge, bool, error)

	// Take removes and returns the outstanding challenge. At most one
	// caller observes a given challenge.
	Take(ctx context.Context, address string) (*core.Challenge, bool, error)

	// Sweep drops challenges issued before the cutoff. Stores with
	// native key expiry may treat this as a no-op.
	Sweep(ctx context.Context, cutoff time.Time) error
}

// RevocationList records token ids invalidated before their natural
// expiry. Entries only need to live as long as the token they revoke.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
