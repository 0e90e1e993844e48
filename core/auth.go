package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuthMode indicates how a session was established.
type AuthMode string

const (
	// ModeFull means the identity backend confirmed the profile at login.
	ModeFull AuthMode = "full"

	// ModeDegraded means the session was issued on wallet proof alone
	// because the identity backend was unreachable.
	ModeDegraded AuthMode = "degraded"
)

// Challenge represents one outstanding authentication attempt.
// It is valid for a single verification attempt within its TTL window.
type Challenge struct {
	Address  string    // Wallet address the challenge was issued for
	Nonce    string    // Random value the wallet must sign
	Prompt   string    // Human-readable message embedding the nonce
	IssuedAt time.Time // When the challenge was created
}

// ProfileProjection is the minimal slice of the backend profile that
// gets copied into session claims.
type ProfileProjection struct {
	Username string          `json:"username"`
	KYCLevel int             `json:"kyc_level"`
	Balance  decimal.Decimal `json:"balance"`
}

// IdentityProfile is the backend's canonical view of a user. The
// service never mutates it; it only requests create-or-fetch and reads
// a projection into the session.
type IdentityProfile struct {
	ID       string          `json:"id"`
	Address  string          `json:"address"`
	Username string          `json:"username"`
	KYCLevel int             `json:"kyc_level"`
	Balance  decimal.Decimal `json:"balance"`
}

// Projection returns the portion of the profile carried in session claims.
func (p *IdentityProfile) Projection() ProfileProjection {
	return ProfileProjection{
		Username: p.Username,
		KYCLevel: p.KYCLevel,
		Balance:  p.Balance,
	}
}

// Session represents an authenticated principal. It is encoded
// entirely inside the issued token; there is no server-side session
// table.
type Session struct {
	TokenID     string            // Unique token identifier (jti)
	Address     string            // Wallet address proven at login
	PrincipalID string            // Backend identity id; equals Address in degraded mode
	Mode        AuthMode          // Full or Degraded
	IssuedAt    time.Time         // When the session was minted
	ExpiresAt   time.Time         // End of the validity window
	Profile     ProfileProjection // Cached profile slice
}

// Degraded reports whether the session was issued without backend
// profile confirmation.
func (s *Session) Degraded() bool {
	return s.Mode == ModeDegraded
}

// Identity is the context handed to protected handlers once a request
// passes authentication.
type Identity struct {
	Address     string
	PrincipalID string
	Mode        AuthMode
}
