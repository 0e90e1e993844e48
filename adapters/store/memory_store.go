package store

import (
	"context"
	"sync"
	"time"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/ports"
)

// MemoryChallengeStore keeps outstanding challenges in a mutex-guarded
// map. Suitable for single-instance deployments and tests; multi
// instance deployments should use the Redis store instead.
type MemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]memoryEntry
}

type memoryEntry struct {
	challenge *core.Challenge
	expiresAt time.Time
}

// NewMemoryChallengeStore creates an empty in-memory challenge store.
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		challenges: make(map[string]memoryEntry),
	}
}

// Put stores a challenge, replacing any prior one for the address.
func (s *MemoryChallengeStore) Put(ctx context.Context, address string, ch *core.Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[address] = memoryEntry{
		challenge: ch,
		expiresAt: ch.IssuedAt.Add(ttl),
	}
	return nil
}

// Get returns the outstanding challenge without consuming it.
func (s *MemoryChallengeStore) Get(ctx context.Context, address string) (*core.Challenge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.challenges[address]
	if !ok {
		return nil, false, nil
	}
	return entry.challenge, true, nil
}

// Take removes and returns the outstanding challenge. The delete
// happens under the same lock as the lookup, so at most one caller
// observes a given challenge.
func (s *MemoryChallengeStore) Take(ctx context.Context, address string) (*core.Challenge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.challenges[address]
	if !ok {
		return nil, false, nil
	}
	delete(s.challenges, address)
	return entry.challenge, true, nil
}

// Sweep drops entries whose TTL elapsed before the cutoff. Correctness
// does not depend on it; consumers re-check the TTL on Take.
func (s *MemoryChallengeStore) Sweep(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for address, entry := range s.challenges {
		if entry.expiresAt.Before(cutoff) {
			delete(s.challenges, address)
		}
	}
	return nil
}

// MemoryRevocationList is an in-memory implementation of the
// revocation list.
type MemoryRevocationList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewMemoryRevocationList creates an empty in-memory revocation list.
func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{
		revoked: make(map[string]time.Time),
	}
}

// Revoke records a token id for the given remaining lifetime.
func (l *MemoryRevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

// IsRevoked reports whether the token id has an unexpired revocation
// entry.
func (l *MemoryRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	l.mu.RLock()
	expiresAt, ok := l.revoked[tokenID]
	l.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		l.mu.Lock()
		delete(l.revoked, tokenID)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}

var (
	_ ports.ChallengeStore = (*MemoryChallengeStore)(nil)
	_ ports.RevocationList = (*MemoryRevocationList)(nil)
)
