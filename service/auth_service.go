package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/ports"
)

// DefaultBackendTimeout bounds the identity backend call during login.
// A stalled backend must never block authentication: on timeout the
// coordinator issues a degraded session instead.
const DefaultBackendTimeout = 3 * time.Second

// AuthService drives the login state machine: challenge issuance,
// signature verification, identity reconciliation, and session
// minting. Backend unavailability is a policy-selected success path
// (degraded mode), not a failure.
type AuthService struct {
	registry *NonceRegistry
	tokens   *TokenService
	verifier ports.WalletVerifier
	backend  ports.IdentityBackend
	revoked  ports.RevocationList
	events   ports.EventPublisher
	log      *zap.Logger

	backendTimeout time.Duration
}

// NewAuthService wires the coordinator. A non-positive backendTimeout
// falls back to DefaultBackendTimeout.
func NewAuthService(
	registry *NonceRegistry,
	tokens *TokenService,
	verifier ports.WalletVerifier,
	backend ports.IdentityBackend,
	revoked ports.RevocationList,
	events ports.EventPublisher,
	log *zap.Logger,
	backendTimeout time.Duration,
) *AuthService {
	if backendTimeout <= 0 {
		backendTimeout = DefaultBackendTimeout
	}
	return &AuthService{
		registry:       registry,
		tokens:         tokens,
		verifier:       verifier,
		backend:        backend,
		revoked:        revoked,
		events:         events,
		log:            log,
		backendTimeout: backendTimeout,
	}
}

// RequestChallenge issues a nonce for the address. No authentication
// has happened yet; any caller may request a challenge for any
// address.
func (s *AuthService) RequestChallenge(ctx context.Context, address string) (*core.Challenge, error) {
	return s.registry.Issue(ctx, address)
}

// Login verifies the signed challenge and mints a session. The nonce
// is burned on every outcome, so a captured signature cannot be
// replayed.
func (s *AuthService) Login(ctx context.Context, address, signature string) (*core.Session, string, error) {
	challenge, err := s.registry.Outstanding(ctx, address)
	if err != nil {
		return nil, "", err
	}

	if err := s.verifier.Verify(address, challenge.Prompt, signature); err != nil {
		// Burn the nonce even on a bad signature to block
		// brute-force retries against the same challenge.
		if consumeErr := s.registry.Consume(ctx, address, challenge.Nonce); consumeErr != nil {
			s.log.Debug("challenge already gone while burning after bad signature",
				zap.String("address", address), zap.Error(consumeErr))
		}
		return nil, "", core.ErrInvalidSignature
	}

	// The consume must succeed: a concurrent login may have burned the
	// challenge between Outstanding and here, in which case this
	// attempt fails closed.
	if err := s.registry.Consume(ctx, address, challenge.Nonce); err != nil {
		return nil, "", err
	}

	principalID, mode, profile := s.resolveIdentity(ctx, address)

	return s.tokens.Mint(address, principalID, mode, profile)
}

// resolveIdentity reconciles the address with the identity backend
// under a timeout. Unreachability selects degraded mode: the session
// still gets minted, with the address standing in for the principal id
// and a zeroed profile projection.
func (s *AuthService) resolveIdentity(ctx context.Context, address string) (string, core.AuthMode, core.ProfileProjection) {
	backendCtx, cancel := context.WithTimeout(ctx, s.backendTimeout)
	defer cancel()

	profile, err := s.backend.CreateOrFetch(backendCtx, address)
	if err != nil {
		s.log.Warn("identity backend unreachable, issuing degraded session",
			zap.String("address", address), zap.Error(err))
		return address, core.ModeDegraded, core.ProfileProjection{}
	}

	return profile.ID, core.ModeFull, profile.Projection()
}

// Refresh re-mints a session from a possibly expired token. It never
// re-proves wallet control and never touches the challenge registry or
// the identity backend; the signature on the old token is the whole
// proof.
func (s *AuthService) Refresh(ctx context.Context, token string) (*core.Session, string, error) {
	old, err := s.tokens.Decode(token)
	if err != nil {
		return nil, "", err
	}

	revoked, err := s.revoked.IsRevoked(ctx, old.TokenID)
	if err != nil {
		return nil, "", err
	}
	if revoked {
		return nil, "", core.ErrTokenRevoked
	}

	return s.tokens.Refresh(token)
}

// Authenticate validates a bearer token for resource access: full
// verification plus a revocation check. Used by the HTTP middleware,
// which projects the returned session into an identity context for
// downstream handlers.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*core.Session, error) {
	session, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, session.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, core.ErrTokenRevoked
	}

	return session, nil
}

// Profile returns the live backend profile when reachable, else the
// projection embedded in the session. The second return value reports
// whether the data is live.
func (s *AuthService) Profile(ctx context.Context, session *core.Session) (*core.IdentityProfile, bool) {
	backendCtx, cancel := context.WithTimeout(ctx, s.backendTimeout)
	defer cancel()

	profile, err := s.backend.CreateOrFetch(backendCtx, session.Address)
	if err == nil {
		return profile, true
	}

	s.log.Warn("identity backend unreachable, serving cached projection",
		zap.String("address", session.Address), zap.Error(err))

	return &core.IdentityProfile{
		ID:       session.PrincipalID,
		Address:  session.Address,
		Username: session.Profile.Username,
		KYCLevel: session.Profile.KYCLevel,
		Balance:  session.Profile.Balance,
	}, false
}

// Logout acknowledges a logout. When the token still parses, its id is
// recorded on the revocation list for the token's remaining validity
// (at least an hour, to cover clock skew on already-expired tokens)
// and a logout event is published for other instances. A token that
// does not parse is simply acknowledged: the client discards it either
// way.
func (s *AuthService) Logout(ctx context.Context, token string) {
	session, err := s.tokens.Decode(token)
	if err != nil {
		return
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl < time.Hour {
		ttl = time.Hour
	}

	if err := s.revoked.Revoke(ctx, session.TokenID, ttl); err != nil {
		s.log.Warn("failed to record revocation",
			zap.String("token_id", session.TokenID), zap.Error(err))
	}

	if err := s.events.PublishLogout(ctx, session.Address, session.TokenID); err != nil {
		s.log.Warn("failed to publish logout event",
			zap.String("token_id", session.TokenID), zap.Error(err))
	}
}
