package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/ports"
)

const (
	// DefaultSessionTTL is the validity window of a minted session.
	DefaultSessionTTL = 7 * 24 * time.Hour

	// DefaultRefreshHorizon bounds how long past expiry a token can
	// still be refreshed. Beyond it the session is gone for good and
	// the wallet must log in again.
	DefaultRefreshHorizon = 30 * 24 * time.Hour
)

// TokenService mints, verifies, and refreshes self-contained session
// tokens. It holds no server-side session state: everything it needs
// is the signing secret (inside the tokenizer) and the clock.
type TokenService struct {
	tokenizer      ports.Tokenizer
	sessionTTL     time.Duration
	refreshHorizon time.Duration
	now            func() time.Time
}

// NewTokenService creates a token service. Non-positive durations fall
// back to the defaults.
func NewTokenService(tokenizer ports.Tokenizer, sessionTTL, refreshHorizon time.Duration) *TokenService {
	if sessionTTL == 0 {
		sessionTTL = DefaultSessionTTL
	}
	if refreshHorizon <= 0 {
		refreshHorizon = DefaultRefreshHorizon
	}
	return &TokenService{
		tokenizer:      tokenizer,
		sessionTTL:     sessionTTL,
		refreshHorizon: refreshHorizon,
		now:            time.Now,
	}
}

// Mint creates a session for the principal and returns it with its
// signed token.
func (s *TokenService) Mint(address, principalID string, mode core.AuthMode, profile core.ProfileProjection) (*core.Session, string, error) {
	now := s.now()
	session := &core.Session{
		TokenID:     uuid.New().String(),
		Address:     address,
		PrincipalID: principalID,
		Mode:        mode,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.sessionTTL),
		Profile:     profile,
	}

	token, err := s.tokenizer.SessionToToken(session)
	if err != nil {
		return nil, "", err
	}
	return session, token, nil
}

// Verify checks structure, signature, and validity window. A session
// past its expiry is rejected here even though Refresh would still
// accept it.
func (s *TokenService) Verify(token string) (*core.Session, error) {
	session, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(session.ExpiresAt) {
		return nil, core.ErrTokenExpired
	}
	return session, nil
}

// Decode parses a token checking signature and structure only. Used
// where an expired session must still be readable (refresh, logout).
func (s *TokenService) Decode(token string) (*core.Session, error) {
	return s.tokenizer.TokenToSession(token)
}

// Refresh re-mints a session from a still-parseable token. Expired
// tokens are accepted as long as the signature is intact and the
// expiry lies within the refresh horizon; the new session carries the
// same principal with a fresh validity window.
func (s *TokenService) Refresh(token string) (*core.Session, string, error) {
	old, err := s.tokenizer.TokenToSession(token)
	if err != nil {
		return nil, "", err
	}

	if s.now().After(old.ExpiresAt.Add(s.refreshHorizon)) {
		return nil, "", core.ErrTokenExpired
	}

	return s.Mint(old.Address, old.PrincipalID, old.Mode, old.Profile)
}
