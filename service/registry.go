package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/ports"
)

// DefaultChallengeTTL is how long an issued challenge stays valid.
const DefaultChallengeTTL = 5 * time.Minute

// DefaultSweepInterval is how often expired challenges are swept from
// stores without native key expiry.
const DefaultSweepInterval = time.Minute

// NonceRegistry issues and invalidates one-time authentication
// challenges. Only the most recent challenge per address is valid, and
// every challenge is good for exactly one verification attempt.
type NonceRegistry struct {
	store ports.ChallengeStore
	ttl   time.Duration
	now   func() time.Time
}

// NewNonceRegistry creates a registry over the given store. A
// non-positive ttl falls back to DefaultChallengeTTL.
func NewNonceRegistry(store ports.ChallengeStore, ttl time.Duration) *NonceRegistry {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &NonceRegistry{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Issue generates a fresh challenge for the address, replacing any
// prior outstanding one.
func (r *NonceRegistry) Issue(ctx context.Context, address string) (*core.Challenge, error) {
	nonceBytes := make([]byte, 32)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := r.now()
	nonce := hex.EncodeToString(nonceBytes)
	ch := &core.Challenge{
		Address:  address,
		Nonce:    nonce,
		Prompt:   challengePrompt(address, nonce, now),
		IssuedAt: now,
	}

	if err := r.store.Put(ctx, address, ch, r.ttl); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}
	return ch, nil
}

// Outstanding returns the unconsumed challenge for the address without
// burning it. Expired challenges are reported as missing.
func (r *NonceRegistry) Outstanding(ctx context.Context, address string) (*core.Challenge, error) {
	ch, ok, err := r.store.Get(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge: %w", err)
	}
	if !ok || r.expired(ch) {
		return nil, core.ErrMissingChallenge
	}
	return ch, nil
}

// Consume burns the outstanding challenge for the address. It fails
// when no challenge exists, the provided nonce does not match, or the
// TTL elapsed. On every outcome the stored challenge is gone, so a
// nonce can never be presented twice. The store's Take is atomic per
// key: of two concurrent consumers exactly one obtains the challenge.
func (r *NonceRegistry) Consume(ctx context.Context, address, nonce string) error {
	ch, ok, err := r.store.Take(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}
	if !ok || r.expired(ch) || ch.Nonce != nonce {
		return core.ErrMissingChallenge
	}
	return nil
}

// StartSweeper periodically removes expired challenges to bound
// memory. Liveness only: Consume and Outstanding re-check the TTL
// themselves. Returns when ctx is cancelled.
func (r *NonceRegistry) StartSweeper(ctx context.Context, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.store.Sweep(ctx, r.now()); err != nil {
				log.Warn("challenge sweep failed", zap.Error(err))
			}
		}
	}
}

func (r *NonceRegistry) expired(ch *core.Challenge) bool {
	return r.now().Sub(ch.IssuedAt) > r.ttl
}

func challengePrompt(address, nonce string, issuedAt time.Time) string {
	return fmt.Sprintf(
		"Sign this message to authenticate.\n\nAddress: %s\nNonce: %s\nIssued at: %s",
		address, nonce, issuedAt.UTC().Format(time.RFC3339),
	)
}
