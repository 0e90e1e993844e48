package ports

import (
	"context"

	"github.com/DCMX-Protocol/walletgate/core"
)

// IdentityBackend is the external system of record for user profiles.
// It is strictly best-effort: callers bound it with a timeout and fall
// back to degraded-mode claims when it returns
// core.ErrBackendUnavailable.
type IdentityBackend interface {
	// CreateOrFetch returns the profile for the address, creating it
	// on first login.
	CreateOrFetch(ctx context.Context, address string) (*core.IdentityProfile, error)
}
