package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/ports"
)

const (
	challengePrefix  = "walletgate:challenge:"
	revocationPrefix = "walletgate:revoked:"
)

// RedisChallengeStore keeps outstanding challenges in Redis so that
// any instance behind a load balancer can consume a challenge issued
// by another. Key TTLs carry the challenge TTL natively.
type RedisChallengeStore struct {
	client *redis.Client
}

// NewRedisChallengeStore creates a challenge store backed by the given
// Redis client.
func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

// Put stores a challenge under the address key with the challenge TTL.
func (s *RedisChallengeStore) Put(ctx context.Context, address string, ch *core.Challenge, ttl time.Duration) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}

	if err := s.client.Set(ctx, challengePrefix+address, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}
	return nil
}

// Get returns the outstanding challenge without consuming it.
func (s *RedisChallengeStore) Get(ctx context.Context, address string) (*core.Challenge, bool, error) {
	payload, err := s.client.Get(ctx, challengePrefix+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read challenge: %w", err)
	}

	var ch core.Challenge
	if err := json.Unmarshal(payload, &ch); err != nil {
		return nil, false, fmt.Errorf("failed to decode challenge: %w", err)
	}
	return &ch, true, nil
}

// Take removes and returns the outstanding challenge. GETDEL makes the
// read-and-delete a single atomic Redis operation, so two concurrent
// logins cannot both observe the same challenge.
func (s *RedisChallengeStore) Take(ctx context.Context, address string) (*core.Challenge, bool, error) {
	payload, err := s.client.GetDel(ctx, challengePrefix+address).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to consume challenge: %w", err)
	}

	var ch core.Challenge
	if err := json.Unmarshal(payload, &ch); err != nil {
		return nil, false, fmt.Errorf("failed to decode challenge: %w", err)
	}
	return &ch, true, nil
}

// Sweep is a no-op: Redis expires challenge keys itself.
func (s *RedisChallengeStore) Sweep(ctx context.Context, cutoff time.Time) error {
	return nil
}

// RedisRevocationList records revoked token ids in Redis with a TTL
// equal to the token's remaining validity.
type RedisRevocationList struct {
	client *redis.Client
}

// NewRedisRevocationList creates a revocation list backed by the given
// Redis client.
func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

// Revoke marks a token id as revoked for the given duration.
func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := l.client.Set(ctx, revocationPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks whether the token id has a revocation entry.
func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, revocationPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return n > 0, nil
}

var (
	_ ports.ChallengeStore = (*RedisChallengeStore)(nil)
	_ ports.RevocationList = (*RedisRevocationList)(nil)
)
